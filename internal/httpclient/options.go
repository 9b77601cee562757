package httpclient

import "net/http"

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearer sets the Authorization header to "Bearer <token>". An empty
// token leaves the request unauthenticated.
func WithBearer(token string) RequestOption {
	return func(r *http.Request) {
		if token == "" {
			return
		}
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

// WithGitHubAPI sets the headers GitHub's REST API expects.
func WithGitHubAPI(token string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set("Accept", "application/vnd.github+json")
		r.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		WithBearer(token)(r)
	}
}
