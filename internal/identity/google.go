package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const userinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// StateStore holds single-use OAuth state tokens with their post-login
// return path. Take consumes the token.
type StateStore interface {
	Put(ctx context.Context, state, returnTo string, ttl time.Duration) error
	Take(ctx context.Context, state string) (returnTo string, ok bool, err error)
}

// Google runs the OAuth code flow against Google and resolves the caller's
// profile.
type Google struct {
	cfg    *oauth2.Config
	states StateStore
}

// NewGoogle builds the flow for the configured client.
func NewGoogle(clientID, clientSecret, callbackURL string, states StateStore) *Google {
	return &Google{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		states: states,
	}
}

// AuthURL allocates a single-use state token carrying returnTo and returns
// the Google consent URL to redirect to.
func (g *Google) AuthURL(ctx context.Context, returnTo string) (string, error) {
	state := uuid.NewString()
	if err := g.states.Put(ctx, state, returnTo, 10*time.Minute); err != nil {
		return "", fmt.Errorf("store oauth state: %w", err)
	}
	return g.cfg.AuthCodeURL(state), nil
}

// Exchange validates the callback state, swaps the code for a token and
// fetches the user's profile. It returns the profile and the return path
// stashed when the flow started.
func (g *Google) Exchange(ctx context.Context, state, code string) (Profile, string, error) {
	returnTo, ok, err := g.states.Take(ctx, state)
	if err != nil {
		return Profile{}, "", fmt.Errorf("check oauth state: %w", err)
	}
	if !ok {
		return Profile{}, "", errors.New("unknown or expired oauth state")
	}

	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, "", fmt.Errorf("code exchange failed: %w", err)
	}

	profile, err := g.fetchProfile(ctx, token)
	if err != nil {
		return Profile{}, "", err
	}
	return profile, returnTo, nil
}

func (g *Google) fetchProfile(ctx context.Context, token *oauth2.Token) (Profile, error) {
	client := g.cfg.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoURL, nil)
	if err != nil {
		return Profile{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return Profile{}, fmt.Errorf("userinfo error %s: %s", resp.Status, string(body))
	}

	var out struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Profile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if out.Email == "" {
		return Profile{}, errors.New("provider returned no email")
	}
	return Profile{
		Email:      out.Email,
		GoogleID:   out.ID,
		Name:       out.Name,
		PictureURL: out.Picture,
	}, nil
}
