// Package robots implements a small robots.txt politeness gate for the
// article fetcher. Rules are fetched once per host and cached in memory with
// an expiry; lookup failures fail open so an unreachable robots.txt never
// blocks a scrape run.
package robots

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

type rules struct {
	allow    []string
	disallow []string
}

type hostEntry struct {
	rules  rules
	expiry time.Time
}

// Gate answers whether a URL may be fetched according to the target host's
// robots.txt. The zero value with a UserAgent set is usable.
type Gate struct {
	HTTPClient *http.Client
	UserAgent  string
	// EntryExpiry bounds how long per-host rules are reused. Zero means 30
	// minutes.
	EntryExpiry time.Duration

	mu    sync.Mutex
	hosts map[string]hostEntry
	now   func() time.Time
}

// Allowed reports whether the URL may be fetched. Errors cover malformed
// URLs only; robots.txt transport failures are treated as allow-all.
func (g *Gate) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse url: %w", err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("missing host in url: %q", rawURL)
	}

	r, ok := g.cached(u.Host)
	if !ok {
		fetched, err := g.fetchRules(ctx, u)
		if err != nil {
			// Fail open: politeness must not turn into an outage.
			g.store(u.Host, rules{})
			return true, nil
		}
		g.store(u.Host, fetched)
		r = fetched
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return r.isAllowed(path), nil
}

func (g *Gate) cached(host string) (rules, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.now == nil {
		g.now = time.Now
	}
	ent, ok := g.hosts[host]
	if !ok || g.now().After(ent.expiry) {
		return rules{}, false
	}
	return ent.rules, true
}

func (g *Gate) store(host string, r rules) {
	exp := g.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.hosts == nil {
		g.hosts = make(map[string]hostEntry)
	}
	g.hosts[host] = hostEntry{rules: r, expiry: g.now().Add(exp)}
}

func (g *Gate) fetchRules(ctx context.Context, u *url.URL) (rules, error) {
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return rules{}, err
	}
	if g.UserAgent != "" {
		req.Header.Set("User-Agent", g.UserAgent)
	}
	client := g.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return rules{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rules{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rules{}, err
	}
	return g.parse(string(body)), nil
}

// parse keeps only the groups that apply to this gate's user agent or the
// wildcard agent. Crawl-delay is ignored: the orchestrator already enforces
// its own inter-request delay.
func (g *Gate) parse(text string) rules {
	agent := strings.ToLower(g.UserAgent)
	var r rules
	applies := false
	sawAgentLine := false

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon <= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:colon]))
		val := strings.TrimSpace(line[colon+1:])
		switch key {
		case "user-agent", "useragent":
			token := strings.ToLower(val)
			if sawAgentLine && (len(r.allow) > 0 || len(r.disallow) > 0) {
				// New group starts; reset applicability.
				applies = false
			}
			sawAgentLine = true
			if token == "*" || (agent != "" && strings.Contains(agent, token)) {
				applies = true
			}
		case "allow":
			if applies && val != "" {
				r.allow = append(r.allow, val)
			}
		case "disallow":
			if applies && val != "" {
				r.disallow = append(r.disallow, val)
			}
		}
	}
	return r
}

// isAllowed applies longest-prefix-wins between allow and disallow
// directives; no matching directive defaults to allow.
func (r rules) isAllowed(path string) bool {
	best := -1
	allowed := true
	for _, p := range r.disallow {
		if strings.HasPrefix(path, p) && len(p) > best {
			best = len(p)
			allowed = false
		}
	}
	for _, p := range r.allow {
		if strings.HasPrefix(path, p) && len(p) >= best {
			best = len(p)
			allowed = true
		}
	}
	return allowed
}
