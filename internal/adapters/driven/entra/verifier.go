// Package entra validates Microsoft Entra ID sign-in tokens for the
// dashboard: RS256 signature verification against the tenant's JWKS,
// plus audience, issuer, and expiry checks.
package entra

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/custodia-labs/sharewatch-cli/internal/core/domain"
	"github.com/custodia-labs/sharewatch-cli/internal/core/ports/driven"
)

// JWKSTTL bounds how long fetched signing keys are reused.
const JWKSTTL = 24 * time.Hour

// Verifier validates Entra ID tokens issued to the dashboard app
// registration.
type Verifier struct {
	tenantID string
	clientID string
	jwksURL  string
	http     *http.Client
	keys     driven.KeyCache
	now      func() time.Time
}

var _ driven.TokenVerifier = (*Verifier)(nil)

// NewVerifier creates a verifier for the tenant and client (app)
// registration. jwksURL and httpClient may be empty for the defaults.
func NewVerifier(tenantID, clientID, jwksURL string, httpClient *http.Client, keys driven.KeyCache) *Verifier {
	if jwksURL == "" {
		jwksURL = fmt.Sprintf("https://login.microsoftonline.com/%s/discovery/v2.0/keys", tenantID)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Verifier{
		tenantID: tenantID,
		clientID: clientID,
		jwksURL:  jwksURL,
		http:     httpClient,
		keys:     keys,
		now:      time.Now,
	}
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

type entraClaims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
}

// Verify checks the token's signature and claims and returns the
// signed-in identity.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (*driven.IdentityClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithIssuer(fmt.Sprintf("https://login.microsoftonline.com/%s/v2.0", v.tenantID)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)

	claims := &entraClaims{}
	_, err := parser.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		return v.signingKey(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAuthInvalid, err)
	}

	if claims.PreferredUsername == "" {
		return nil, fmt.Errorf("%w: no preferred_username claim", domain.ErrAuthInvalid)
	}

	return &driven.IdentityClaims{
		Email: claims.PreferredUsername,
		Name:  claims.Name,
	}, nil
}

// signingKey resolves the RSA public key for a key ID, fetching and
// caching the tenant JWKS as needed.
func (v *Verifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	cacheKey := "jwks:" + v.tenantID

	set, ok := v.keys.Get(cacheKey)
	if !ok {
		fetched, err := v.fetchJWKS(ctx)
		if err != nil {
			return nil, err
		}
		v.keys.Set(cacheKey, fetched)
		set = fetched
	}

	keys, ok := set.(*jwks)
	if !ok {
		return nil, fmt.Errorf("unexpected key cache entry type %T", set)
	}
	for _, k := range keys.Keys {
		if k.Kid == kid && k.Kty == "RSA" {
			return parseRSAKey(k)
		}
	}
	return nil, fmt.Errorf("token signing key %q not found", kid)
}

func (v *Verifier) fetchJWKS(ctx context.Context) (*jwks, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build JWKS request: %w", err)
	}
	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch JWKS: unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read JWKS: %w", err)
	}
	var set jwks
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("decode JWKS: %w", err)
	}
	return &set, nil
}

func parseRSAKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode key modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode key exponent: %w", err)
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}
