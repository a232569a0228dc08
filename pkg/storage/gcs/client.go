// Package gcs implements storage.ObjectStore on top of the Google Cloud
// Storage JSON API using a plain HTTP client.
package gcs

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	apiBase    = "https://storage.googleapis.com/storage/v1"
	uploadBase = "https://storage.googleapis.com/upload/storage/v1"
	hostBase   = "https://storage.googleapis.com"

	storageScope = "https://www.googleapis.com/auth/devstorage.read_write"

	metadataTokenURL = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"
)

type Client struct {
	httpClient    *http.Client
	defaultBucket string
	tokens        *tokenSource
}

// New builds a client for bucket. credentialsJSON may be empty, in which
// case tokens come from the GCE metadata server and SignedURL is
// unavailable.
func New(bucket string, credentialsJSON string) (*Client, error) {
	if bucket == "" {
		return nil, fmt.Errorf("gcs: bucket name is required")
	}

	ts, err := newTokenSource(credentialsJSON)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		defaultBucket: bucket,
		tokens:        ts,
	}, nil
}

// Put uploads data under key using a single-request media upload.
func (c *Client) Put(ctx context.Context, key string, contentType string, data []byte) error {
	token, err := c.tokens.token(ctx, c.httpClient)
	if err != nil {
		return fmt.Errorf("gcs: fetch token: %w", err)
	}

	endpoint := fmt.Sprintf("%s/b/%s/o?uploadType=media&name=%s",
		uploadBase, url.PathEscape(c.defaultBucket), url.QueryEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("gcs: build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs: upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gcs: upload returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Get downloads the object content with an alt=media read.
func (c *Client) Get(ctx context.Context, key string) ([]byte, string, error) {
	token, err := c.tokens.token(ctx, c.httpClient)
	if err != nil {
		return nil, "", fmt.Errorf("gcs: fetch token: %w", err)
	}

	endpoint := fmt.Sprintf("%s/b/%s/o/%s?alt=media",
		apiBase, url.PathEscape(c.defaultBucket), url.QueryEscape(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("gcs: build download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("gcs: download object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("gcs: download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("gcs: read object body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// SignedURL returns a V2-signed download URL. It requires service account
// credentials; metadata-server tokens cannot sign.
func (c *Client) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	sa := c.tokens.serviceAccount
	if sa == nil {
		return "", fmt.Errorf("gcs: signed URLs require service account credentials")
	}

	expires := time.Now().Add(expiry).Unix()
	resource := fmt.Sprintf("/%s/%s", c.defaultBucket, key)
	stringToSign := strings.Join([]string{
		http.MethodGet,
		"", // content MD5
		"", // content type
		fmt.Sprintf("%d", expires),
		resource,
	}, "\n")

	digest := sha256.Sum256([]byte(stringToSign))
	sig, err := rsa.SignPKCS1v15(rand.Reader, sa.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("gcs: sign url: %w", err)
	}

	q := url.Values{}
	q.Set("GoogleAccessId", sa.clientEmail)
	q.Set("Expires", fmt.Sprintf("%d", expires))
	q.Set("Signature", base64.StdEncoding.EncodeToString(sig))

	return fmt.Sprintf("%s%s?%s", hostBase, resource, q.Encode()), nil
}

// Ping lists at most one object to verify the bucket is reachable.
func (c *Client) Ping(ctx context.Context) error {
	token, err := c.tokens.token(ctx, c.httpClient)
	if err != nil {
		return fmt.Errorf("gcs: fetch token: %w", err)
	}

	endpoint := fmt.Sprintf("%s/b/%s/o?maxResults=1", apiBase, url.PathEscape(c.defaultBucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("gcs: build ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gcs: ping bucket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gcs: ping returned %d", resp.StatusCode)
	}
	return nil
}

// tokenSource caches OAuth access tokens until shortly before expiry.
type tokenSource struct {
	mu             sync.Mutex
	cached         string
	expiresAt      time.Time
	serviceAccount *serviceAccountKey
}

type serviceAccountKey struct {
	clientEmail string
	tokenURI    string
	privateKey  *rsa.PrivateKey
}

func newTokenSource(credentialsJSON string) (*tokenSource, error) {
	if credentialsJSON == "" {
		return &tokenSource{}, nil
	}

	var raw struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
		TokenURI    string `json:"token_uri"`
	}
	if err := json.Unmarshal([]byte(credentialsJSON), &raw); err != nil {
		return nil, fmt.Errorf("gcs: parse credentials: %w", err)
	}
	if raw.ClientEmail == "" || raw.PrivateKey == "" {
		return nil, fmt.Errorf("gcs: credentials missing client_email or private_key")
	}
	if raw.TokenURI == "" {
		raw.TokenURI = "https://oauth2.googleapis.com/token"
	}

	key, err := parsePrivateKey(raw.PrivateKey)
	if err != nil {
		return nil, err
	}

	return &tokenSource{
		serviceAccount: &serviceAccountKey{
			clientEmail: raw.ClientEmail,
			tokenURI:    raw.TokenURI,
			privateKey:  key,
		},
	}, nil
}

func (s *tokenSource) token(ctx context.Context, hc *http.Client) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Refresh a minute early so in-flight requests never carry a stale token.
	if s.cached != "" && time.Now().Before(s.expiresAt.Add(-time.Minute)) {
		return s.cached, nil
	}

	var (
		token     string
		expiresIn int
		err       error
	)
	if s.serviceAccount != nil {
		token, expiresIn, err = fetchServiceAccountToken(ctx, hc, s.serviceAccount)
	} else {
		token, expiresIn, err = fetchMetadataToken(ctx, hc)
	}
	if err != nil {
		return "", err
	}

	s.cached = token
	s.expiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	return token, nil
}

func fetchServiceAccountToken(ctx context.Context, hc *http.Client, sa *serviceAccountKey) (string, int, error) {
	now := time.Now()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	claims, err := json.Marshal(map[string]any{
		"iss":   sa.clientEmail,
		"scope": storageScope,
		"aud":   sa.tokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})
	if err != nil {
		return "", 0, fmt.Errorf("gcs: marshal jwt claims: %w", err)
	}

	signingInput := header + "." + base64.RawURLEncoding.EncodeToString(claims)
	digest := sha256.Sum256([]byte(signingInput))
	sig, err := rsa.SignPKCS1v15(rand.Reader, sa.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", 0, fmt.Errorf("gcs: sign jwt: %w", err)
	}
	assertion := signingInput + "." + base64.RawURLEncoding.EncodeToString(sig)

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sa.tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("gcs: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := hc.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("gcs: exchange jwt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", 0, fmt.Errorf("gcs: token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("gcs: decode token response: %w", err)
	}
	return out.AccessToken, out.ExpiresIn, nil
}

func fetchMetadataToken(ctx context.Context, hc *http.Client) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataTokenURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("gcs: build metadata request: %w", err)
	}
	req.Header.Set("Metadata-Flavor", "Google")

	resp, err := hc.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("gcs: metadata token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("gcs: metadata server returned %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", 0, fmt.Errorf("gcs: decode metadata response: %w", err)
	}
	return out.AccessToken, out.ExpiresIn, nil
}

func parsePrivateKey(pemText string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, fmt.Errorf("gcs: private key is not valid PEM")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("gcs: private key is not RSA")
		}
		return rsaKey, nil
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("gcs: parse private key: %w", err)
	}
	return key, nil
}
