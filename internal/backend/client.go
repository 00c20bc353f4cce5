package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/valyala/fastjson"
)

const userAgent = "logship/0.1.0"

// ErrUnavailable reports that no configured host accepted the request.
var ErrUnavailable = errors.New("indexing backend unavailable")

// Document is a single entry destined for a named index.
type Document struct {
	Index  string
	Source map[string]any
}

// Options configures a Client.
type Options struct {
	Hosts              []string
	Timeout            time.Duration
	DisableCompression bool
}

// Client talks to one or more indexing backend hosts. Hosts are tried in
// order until one accepts the request. The client is safe for concurrent
// use; the underlying http.Client serializes nothing.
type Client struct {
	hosts    []*url.URL
	httpc    *http.Client
	compress bool
}

// New builds a client for the configured hosts. Host entries without a
// scheme default to http.
func New(opts Options) (*Client, error) {
	if len(opts.Hosts) == 0 {
		return nil, fmt.Errorf("backend hosts: none configured")
	}

	hosts := make([]*url.URL, 0, len(opts.Hosts))
	for _, raw := range opts.Hosts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		base, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse backend host %q: %w", raw, err)
		}
		base.Path = strings.TrimRight(base.Path, "/")
		base.RawQuery = ""
		base.Fragment = ""
		hosts = append(hosts, base)
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("backend hosts: none configured")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		hosts:    hosts,
		httpc:    &http.Client{Timeout: timeout},
		compress: !opts.DisableCompression,
	}, nil
}

// Ping probes connectivity. It succeeds when any host answers the root
// endpoint with a non-5xx status.
func (c *Client) Ping(ctx context.Context) error {
	var lastErr error
	for _, host := range c.hosts {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, host.String()+"/", nil)
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("host %s returned %d", host.Host, resp.StatusCode)
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// EnsureTemplate installs the index template covering every index the
// given prefix produces. Callers treat failure as non-fatal.
func (c *Client) EnsureTemplate(ctx context.Context, prefix string) error {
	template := map[string]any{
		"index_patterns": []string{prefix + "*"},
		"template": map[string]any{
			"mappings": map[string]any{
				"properties": map[string]any{
					"timestamp":   map[string]any{"type": "date"},
					"logger_name": map[string]any{"type": "keyword"},
					"tag_name":    map[string]any{"type": "keyword"},
					"level":       map[string]any{"type": "keyword"},
					"message": map[string]any{
						"type":   "text",
						"fields": map[string]any{"keyword": map[string]any{"type": "keyword"}},
					},
					"metadata":   map[string]any{"type": "object", "dynamic": false},
					"metrics":    map[string]any{"type": "object", "dynamic": true},
					"input_info": map[string]any{"type": "object", "dynamic": false},
					"results":    map[string]any{"type": "object", "dynamic": false},
				},
			},
		},
	}

	body, err := json.Marshal(template)
	if err != nil {
		return fmt.Errorf("encode index template: %w", err)
	}

	path := "/_index_template/" + prefix + "_template"
	return c.eachHost(ctx, func(ctx context.Context, host *url.URL) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, host.String()+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/json")
		return c.do(req)
	})
}

// Bulk delivers documents in order through the bulk write endpoint. The
// body is newline-delimited JSON: an action line naming the target index
// followed by the document source.
func (c *Client) Bulk(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var payload bytes.Buffer
	enc := json.NewEncoder(&payload)
	for _, doc := range docs {
		action := map[string]any{"index": map[string]any{"_index": doc.Index}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(doc.Source); err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
	}

	body := payload.Bytes()
	encoding := ""
	if c.compress {
		var compressed bytes.Buffer
		zw := gzip.NewWriter(&compressed)
		if _, err := zw.Write(body); err != nil {
			return fmt.Errorf("compress bulk body: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compress bulk body: %w", err)
		}
		body = compressed.Bytes()
		encoding = "gzip"
	}

	return c.eachHost(ctx, func(ctx context.Context, host *url.URL) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, host.String()+"/_bulk", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Content-Type", "application/x-ndjson")
		if encoding != "" {
			req.Header.Set("Content-Encoding", encoding)
		}

		resp, err := c.httpc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read bulk response: %w", err)
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("bulk returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		return checkBulkResponse(respBody)
	})
}

// checkBulkResponse inspects the per-item results a 2xx bulk response can
// still carry. Item failures count as a failed delivery so the retry and
// health machinery observe them.
func checkBulkResponse(body []byte) error {
	if len(body) == 0 {
		return nil
	}
	var parser fastjson.Parser
	value, err := parser.ParseBytes(body)
	if err != nil {
		// Backends that return non-JSON on success are tolerated.
		return nil
	}
	if !value.GetBool("errors") {
		return nil
	}

	failed := 0
	for _, item := range value.GetArray("items") {
		index := item.Get("index")
		if index == nil {
			continue
		}
		if status := index.GetInt("status"); status >= 300 {
			failed++
		}
	}
	if failed == 0 {
		failed = 1
	}
	return fmt.Errorf("bulk reported %d failed items", failed)
}

func (c *Client) eachHost(ctx context.Context, attempt func(context.Context, *url.URL) error) error {
	var lastErr error
	for _, host := range c.hosts {
		if err := attempt(ctx, host); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%s %s returned %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
