// Package tts talks to a local VOICEVOX engine to render notification phrases
// into wav clips.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const DefaultURL = "http://localhost:50021"

// Voice holds the per-character prosody overrides applied to each query.
type Voice struct {
	SpeedScale      float64
	PitchScale      float64
	IntonationScale float64
	VolumeScale     float64
}

var Voices = map[string]Voice{
	"zundamon": {SpeedScale: 1.1, PitchScale: 0, IntonationScale: 1.2, VolumeScale: 1.0},
	"metan":    {SpeedScale: 0.9, PitchScale: 0, IntonationScale: 0.8, VolumeScale: 1.0},
	"tsumugi":  {SpeedScale: 0.8, PitchScale: -0.1, IntonationScale: 0.6, VolumeScale: 1.0},
	"kiritan":  {SpeedScale: 1.0, PitchScale: 0, IntonationScale: 1.2, VolumeScale: 1.0},
}

// Apply writes the overrides into an audio query.
func (v Voice) Apply(query map[string]any) {
	query["speedScale"] = v.SpeedScale
	query["pitchScale"] = v.PitchScale
	query["intonationScale"] = v.IntonationScale
	query["volumeScale"] = v.VolumeScale
}

type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, hc *http.Client) *Client {
	if base == "" {
		base = DefaultURL
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: hc}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body io.Reader) ([]byte, error) {
	u := c.base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", path, resp.Status)
	}
	return data, nil
}

// Version checks that the engine is reachable.
func (c *Client) Version(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/version", nil, nil)
	if err != nil {
		return "", fmt.Errorf("voicevox not available at %s: %w", c.base, err)
	}
	return strings.Trim(strings.TrimSpace(string(data)), `"`), nil
}

// AudioQuery asks the engine to prepare synthesis parameters for text. The
// query is kept as a loose map so unknown engine fields pass through untouched.
func (c *Client) AudioQuery(ctx context.Context, text string, speaker int) (map[string]any, error) {
	params := url.Values{"text": {text}, "speaker": {strconv.Itoa(speaker)}}
	data, err := c.do(ctx, http.MethodPost, "/audio_query", params, nil)
	if err != nil {
		return nil, fmt.Errorf("audio query: %w", err)
	}

	var query map[string]any
	if err := json.Unmarshal(data, &query); err != nil {
		return nil, fmt.Errorf("decode audio query: %w", err)
	}
	return query, nil
}

// Synthesize renders a query into wav bytes.
func (c *Client) Synthesize(ctx context.Context, query map[string]any, speaker int) ([]byte, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode audio query: %w", err)
	}

	params := url.Values{"speaker": {strconv.Itoa(speaker)}}
	data, err := c.do(ctx, http.MethodPost, "/synthesis", params, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("synthesis: %w", err)
	}
	return data, nil
}
