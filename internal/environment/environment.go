// Package environment holds the compiled-in API endpoints handed to each
// front-end build target.
package environment

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
)

// Service names one of the Astrotech backend APIs.
type Service string

const (
	Technicien Service = "technicien"
	Client     Service = "client"
	Affaires   Service = "affaires"
	Referent   Service = "referent"
	Fichier    Service = "fichier"
)

// AllServices lists the APIs in a stable order.
func AllServices() []Service {
	return []Service{Technicien, Client, Affaires, Referent, Fichier}
}

var ErrUnknownTarget = errors.New("environment: unknown build target")

// Environment is the endpoint record for one build target. Field names in
// JSON match what the front-end already reads.
type Environment struct {
	Production       bool   `json:"production"`
	TechnicienAPIURL string `json:"technicienApiUrl"`
	ClientAPIURL     string `json:"clientApiUrl"`
	AffairesAPIURL   string `json:"affairesApiUrl"`
	ReferentAPIURL   string `json:"referentApiUrl"`
	FichierAPIURL    string `json:"fichierApiUrl"`

	// APIURL is the legacy default and points at the technicien API.
	APIURL string `json:"apiURL"`
}

var production = Environment{
	Production:       true,
	TechnicienAPIURL: "https://astrotech-technicien-api.onrender.com/api/v1",
	ClientAPIURL:     "https://astrotech-client-api.onrender.com/api/v1",
	AffairesAPIURL:   "https://astrotech-affaires-api.onrender.com/api/v1",
	ReferentAPIURL:   "https://astrotech-referent-api.onrender.com/api/v1",
	FichierAPIURL:    "https://astrotech-fichier-api.onrender.com/api/v1",
	APIURL:           "https://astrotech-technicien-api.onrender.com/api/v1",
}

// Ports match the defaults of the cmd/*-api binaries.
var development = Environment{
	Production:       false,
	TechnicienAPIURL: "http://localhost:3001/api/v1",
	ClientAPIURL:     "http://localhost:3002/api/v1",
	AffairesAPIURL:   "http://localhost:3003/api/v1",
	ReferentAPIURL:   "http://localhost:3004/api/v1",
	FichierAPIURL:    "http://localhost:3005/api/v1",
	APIURL:           "http://localhost:3001/api/v1",
}

var targets = map[string]Environment{
	"production":  production,
	"development": development,
}

// Production returns a copy of the production descriptor.
func Production() Environment { return production }

// Development returns a copy of the local development descriptor.
func Development() Environment { return development }

// ForTarget returns the descriptor for a build target name.
func ForTarget(name string) (Environment, error) {
	env, ok := targets[name]
	if !ok {
		return Environment{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
	}
	return env, nil
}

// Targets returns the known build target names, sorted.
func Targets() []string {
	out := make([]string, 0, len(targets))
	for name := range targets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// URL returns the base URL of svc, or "" for an unknown service.
func (e Environment) URL(svc Service) string {
	switch svc {
	case Technicien:
		return e.TechnicienAPIURL
	case Client:
		return e.ClientAPIURL
	case Affaires:
		return e.AffairesAPIURL
	case Referent:
		return e.ReferentAPIURL
	case Fichier:
		return e.FichierAPIURL
	}
	return ""
}

func (e Environment) Services() map[Service]string {
	out := make(map[Service]string, 5)
	for _, svc := range AllServices() {
		out[svc] = e.URL(svc)
	}
	return out
}

// Validate checks that every URL, the legacy alias included, is absolute and
// that the five service URLs are distinct. Production targets must use https.
func (e Environment) Validate() error {
	seen := make(map[string]Service, 5)
	for _, svc := range AllServices() {
		raw := e.URL(svc)
		if err := e.checkURL(raw); err != nil {
			return fmt.Errorf("environment: %s: %w", svc, err)
		}
		if other, dup := seen[raw]; dup {
			return fmt.Errorf("environment: %s and %s share %s", other, svc, raw)
		}
		seen[raw] = svc
	}
	if err := e.checkURL(e.APIURL); err != nil {
		return fmt.Errorf("environment: apiURL: %w", err)
	}
	return nil
}

func (e Environment) checkURL(raw string) error {
	if raw == "" {
		return errors.New("empty url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%q is not an absolute url", raw)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if e.Production {
			return fmt.Errorf("%q must use https in production", raw)
		}
	default:
		return fmt.Errorf("%q: unsupported scheme %q", raw, u.Scheme)
	}
	return nil
}
