package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

var githubRepoPathRe = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)`)

// githubProber implements the "github" service type: confirm the repo page
// is web-reachable, then call the GitHub REST API to compute a health score.
type githubProber struct{}

type githubRepoResponse struct {
	PushedAt     string `json:"pushed_at"`
	OpenIssues   int    `json:"open_issues_count"`
}

func (p *githubProber) Check(ctx context.Context, target string, svc domain.NestService, deadline time.Duration) Result {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	owner, repo, ok := extractOwnerRepo(target)
	if !ok {
		return down("could not parse owner/repo from target")
	}

	repoURL := fmt.Sprintf("https://github.com/%s/%s", owner, repo)
	if !p.webReachable(ctx, repoURL) {
		return down("repository page not reachable")
	}

	client := p.newClient(svc)

	start := time.Now()
	repoResp, status, err := p.getJSON(ctx, client, fmt.Sprintf("https://api.github.com/repos/%s/%s", owner, repo))
	elapsed := time.Since(start)
	if err != nil {
		return down(err.Error())
	}
	if status == http.StatusNotFound {
		return down("repository not found")
	}
	if status == http.StatusForbidden {
		return up("rate limited", float64(elapsed.Milliseconds()))
	}

	var repoData githubRepoResponse
	if err := json.Unmarshal(repoResp, &repoData); err != nil {
		return down(fmt.Sprintf("invalid repository response: %v", err))
	}

	score := p.healthScore(repoData)
	metadata := map[string]any{
		"healthScore": score,
		"openIssues":  repoData.OpenIssues,
	}

	msg := fmt.Sprintf("health score %d", score)
	if score < 50 {
		return Result{Status: domain.StatusDown, Message: msg, Metadata: metadata}
	}
	res := up(msg, float64(elapsed.Milliseconds()))
	res.Metadata = metadata
	return res
}

func (p *githubProber) newClient(svc domain.NestService) *http.Client {
	return &http.Client{}
}

func (p *githubProber) webReachable(ctx context.Context, repoURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, repoURL, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 500
}

func (p *githubProber) getJSON(ctx context.Context, client *http.Client, apiURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("Request timeout")
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func (p *githubProber) healthScore(repo githubRepoResponse) int {
	score := 100
	pushedAt, err := time.Parse(time.RFC3339, repo.PushedAt)
	if err == nil {
		age := time.Since(pushedAt)
		switch {
		case age > 365*24*time.Hour:
			score -= 30
		case age > 180*24*time.Hour:
			score -= 15
		case age > 30*24*time.Hour:
			score -= 5
		}
	}

	switch {
	case repo.OpenIssues > 100:
		score -= 10
	case repo.OpenIssues > 50:
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	return score
}

func extractOwnerRepo(target string) (owner, repo string, ok bool) {
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) >= 2 {
			return parts[0], parts[1], true
		}
	}
	m := githubRepoPathRe.FindStringSubmatch(target)
	if len(m) == 3 {
		return m[1], strings.TrimSuffix(m[2], ".git"), true
	}
	return "", "", false
}
