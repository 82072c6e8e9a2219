package replica

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zmemovies/rue-track/internal"
)

// HTTPReplica talks to a remote document service. Change notification is
// poll-based: the remote is assumed dumb, so Subscribe just ticks.
type HTTPReplica struct {
	baseURL    string
	token      string
	httpClient *http.Client
	poll       time.Duration
	logger     internal.Logger
}

func NewHTTPReplica(baseURL, token string, poll time.Duration, logger internal.Logger) *HTTPReplica {
	if poll <= 0 {
		poll = 30 * time.Second
	}
	return &HTTPReplica{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		poll:       poll,
		logger:     logger,
	}
}

func (r *HTTPReplica) FetchAll(ctx context.Context) (*internal.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/document", nil)
	if err != nil {
		return nil, err
	}
	r.setHeaders(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Errorf("replica: fetch failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.Errorf("replica: fetch returned %d", resp.StatusCode)
		return nil, fmt.Errorf("replica returned %d", resp.StatusCode)
	}
	doc := &internal.Document{}
	if err := json.NewDecoder(resp.Body).Decode(doc); err != nil {
		r.logger.Errorf("replica: failed to decode document: %v", err)
		return nil, err
	}
	doc.Normalize()
	return doc, nil
}

func (r *HTTPReplica) Insert(ctx context.Context, e Entity) error {
	return r.push(ctx, http.MethodPost, r.entityURL(e.Kind, ""), e)
}

func (r *HTTPReplica) Update(ctx context.Context, e Entity) error {
	return r.push(ctx, http.MethodPut, r.entityURL(e.Kind, e.ID), e)
}

func (r *HTTPReplica) Delete(ctx context.Context, e Entity) error {
	return r.push(ctx, http.MethodDelete, r.entityURL(e.Kind, e.ID), nil)
}

func (r *HTTPReplica) Subscribe(onChange func()) (func(), error) {
	ticker := time.NewTicker(r.poll)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				onChange()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}, nil
}

func (r *HTTPReplica) entityURL(kind EntityKind, id string) string {
	u := r.baseURL + "/entities/" + string(kind)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (r *HTTPReplica) push(ctx context.Context, method, target string, body any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	r.setHeaders(req)
	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Errorf("replica: %s %s failed: %v", method, target, err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		r.logger.Errorf("replica: %s %s returned %d", method, target, resp.StatusCode)
		return fmt.Errorf("replica returned %d", resp.StatusCode)
	}
	return nil
}

func (r *HTTPReplica) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
}

var _ Backend = (*HTTPReplica)(nil)
