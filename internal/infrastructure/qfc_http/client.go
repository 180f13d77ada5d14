package qfc_http

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/davarch/qfc-sync/internal/domain"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://app.qfield.cloud/api/v1/"

type Options struct {
	BaseURL   string
	Token     domain.Secret
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 means unlimited
	UserAgent string
	Fs        afero.Fs
}

type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	hc        *http.Client
	limiter   *rate.Limiter
	fs        afero.Fs
}

func New(o Options) *Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		TLSHandshakeTimeout: 5 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
	if o.Timeout > 0 {
		tr.ResponseHeaderTimeout = o.Timeout
	}

	var rt http.RoundTripper = tr
	if o.Token.IsSet() {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: o.Token.Value(), TokenType: "Token"}),
			Base:   tr,
		}
	}

	limit := rate.Inf
	if o.RateLimit > 0 {
		limit = rate.Limit(o.RateLimit)
	}

	fs := o.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	ua := o.UserAgent
	if ua == "" {
		ua = "qfc-sync"
	}
	base := o.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	return &Client{
		baseURL:   trimSlash(base),
		userAgent: ua,
		timeout:   o.Timeout,
		hc:        &http.Client{Transport: rt},
		limiter:   rate.NewLimiter(limit, 1),
		fs:        fs,
	}
}

// Factory returns a domain.ClientFactory that builds clients with o and the session's URL and token.
func Factory(o Options) domain.ClientFactory {
	return func(s domain.Session) domain.CloudClient {
		opts := o
		opts.BaseURL = s.BaseURL
		opts.Token = s.Token
		return New(opts)
	}
}

func (c *Client) Login(ctx context.Context, username, password string) (domain.LoginResult, error) {
	v, err := c.doJSON(ctx, http.MethodPost, "/auth/login/", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return domain.LoginResult{}, err
	}
	return domain.LoginResult{
		Token: domain.Secret(v.GetText("token")),
		Raw:   v.Redact("token", "password"),
	}, nil
}

func (c *Client) ServerStatus(ctx context.Context) (domain.Value, error) {
	return c.do(ctx, http.MethodGet, "/status/", nil, nil, "")
}

func (c *Client) ListProjects(ctx context.Context) ([]domain.RemoteProject, error) {
	items, err := c.listAll(ctx, "/projects/", nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RemoteProject, 0, len(items))
	for _, it := range items {
		if it.Kind() == domain.KindObject {
			out = append(out, domain.ProjectFromValue(it))
		}
	}
	return out, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (domain.RemoteProject, error) {
	v, err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id)+"/", nil, nil, "")
	if err != nil {
		return domain.RemoteProject{}, err
	}
	return domain.ProjectFromValue(v), nil
}

func (c *Client) CreateProject(ctx context.Context, name, owner string) (domain.RemoteProject, error) {
	body := map[string]any{
		"name":        name,
		"description": "",
		"private":     true,
	}
	if owner != "" {
		body["owner"] = owner
	}
	v, err := c.doJSON(ctx, http.MethodPost, "/projects/", body)
	if err != nil {
		return domain.RemoteProject{}, err
	}
	return domain.ProjectFromValue(v), nil
}

// UploadFiles sends files one by one to the project file store. Without
// Force, files whose MD5 matches the remote copy are skipped.
func (c *Client) UploadFiles(ctx context.Context, projectID string, files []domain.LocalFile, opts domain.UploadOptions) (domain.UploadOutcome, error) {
	remote := map[string]string{}
	if !opts.Force {
		listed, err := c.ListRemoteFiles(ctx, projectID, false)
		if err != nil {
			return domain.UploadOutcome{}, err
		}
		for _, f := range listed {
			remote[f.Name] = strings.ToLower(f.MD5)
		}
	}

	out := domain.UploadOutcome{Accepted: true, Files: make([]domain.FileUploadResult, 0, len(files))}
	for _, f := range files {
		res := domain.FileUploadResult{Name: f.Name, Size: f.Size, Status: domain.FileUploaded}

		if sum, ok := remote[f.Name]; ok && sum != "" {
			if local, err := c.localMD5(f.Path); err == nil && local == sum {
				res.Status = domain.FileSkipped
				out.Files = append(out.Files, res)
				continue
			}
		}

		if err := c.uploadFile(ctx, projectID, f); err != nil {
			res.Status = domain.FileFailed
			res.Error = err.Error()
			out.Files = append(out.Files, res)
			out.Accepted = false
			if opts.ThrowOnError {
				return out, fmt.Errorf("%s: %w", f.Name, err)
			}
			continue
		}
		out.Files = append(out.Files, res)
	}
	return out, nil
}

func (c *Client) uploadFile(ctx context.Context, projectID string, f domain.LocalFile) error {
	src, err := c.fs.Open(f.Path)
	if err != nil {
		return err
	}

	pr, pw := io.Pipe()
	defer func() { _ = pr.Close() }()
	mw := multipart.NewWriter(pw)

	go func() {
		defer func() { _ = src.Close() }()
		part, err := mw.CreateFormFile("file", path.Base(f.Name))
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	// No overall deadline: the body may take long to send. The transport
	// still bounds dialing, the TLS handshake and the wait for the response.
	target := "/files/" + url.PathEscape(projectID) + "/" + escapePath(f.Name) + "/"
	_, err = c.send(ctx, http.MethodPost, target, nil, pr, mw.FormDataContentType())
	return err
}

func (c *Client) localMD5(p string) (string, error) {
	f, err := c.fs.Open(p)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c *Client) TriggerJob(ctx context.Context, projectID string, kind domain.JobKind, force bool) (domain.JobTriggerResponse, error) {
	v, err := c.doJSON(ctx, http.MethodPost, "/jobs/", map[string]any{
		"project_id": projectID,
		"type":       string(kind),
		"force":      force,
	})
	if err != nil {
		return domain.JobTriggerResponse{}, err
	}
	resp := domain.JobTriggerResponse{Kind: kind, Raw: v}
	resp.JobID, resp.Started = domain.ExtractIdentifier(v)
	return resp, nil
}

func (c *Client) JobStatus(ctx context.Context, jobID string) (domain.JobStatusReport, error) {
	v, err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(jobID)+"/", nil, nil, "")
	if err != nil {
		return domain.JobStatusReport{}, err
	}
	status := v.GetText("status")
	if status == "" {
		status = v.GetText("state")
	}
	return domain.JobStatusReport{Status: status, Raw: v}, nil
}

func (c *Client) ListRemoteFiles(ctx context.Context, projectID string, skipMetadata bool) ([]domain.RemoteFile, error) {
	q := url.Values{}
	if skipMetadata {
		q.Set("skip_metadata", "1")
	} else {
		q.Set("skip_metadata", "0")
	}
	items, err := c.listAll(ctx, "/files/"+url.PathEscape(projectID)+"/", q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RemoteFile, 0, len(items))
	for _, it := range items {
		if it.Kind() == domain.KindObject {
			out = append(out, domain.RemoteFileFromValue(it))
		}
	}
	return out, nil
}

// listAll reads a listing that is either a bare array or a paginated
// {"results": [...], "next": url} object.
func (c *Client) listAll(ctx context.Context, p string, q url.Values) ([]domain.Value, error) {
	var out []domain.Value
	for p != "" {
		v, err := c.do(ctx, http.MethodGet, p, q, nil, "")
		if err != nil {
			return nil, err
		}

		switch v.Kind() {
		case domain.KindArray:
			return append(out, v.Items()...), nil
		case domain.KindObject:
			results, ok := v.Get("results")
			if !ok || results.Kind() != domain.KindArray {
				return nil, fmt.Errorf("GET %s: unexpected listing payload", p)
			}
			out = append(out, results.Items()...)
			p, q = v.GetText("next"), nil
		case domain.KindNull:
			return out, nil
		default:
			return nil, fmt.Errorf("GET %s: unexpected listing payload", p)
		}
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, p string, payload any) (domain.Value, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return domain.Value{}, err
	}
	return c.do(ctx, method, p, nil, bytes.NewReader(b), "application/json")
}

// do is one JSON round trip bounded by the client timeout.
func (c *Client) do(ctx context.Context, method, p string, q url.Values, body io.Reader, contentType string) (domain.Value, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.send(ctx, method, p, q, body, contentType)
}

func (c *Client) send(ctx context.Context, method, p string, q url.Values, body io.Reader, contentType string) (domain.Value, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Value{}, err
	}

	target := p
	if !strings.HasPrefix(p, "http://") && !strings.HasPrefix(p, "https://") {
		target = c.baseURL + p
	}
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return domain.Value{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return domain.Value{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Value{}, fmt.Errorf("%s %s: read body: %w", method, target, err)
	}

	if resp.StatusCode >= 300 {
		return domain.Value{}, newAPIError(method, target, resp, raw)
	}

	v, err := domain.ParseValue(raw)
	if err != nil {
		return domain.Value{}, fmt.Errorf("%s %s: decode response: %w", method, target, err)
	}
	return v, nil
}

func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
