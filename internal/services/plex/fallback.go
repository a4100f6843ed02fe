package plex

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"strings"
)

// needsPlexDirectFallback reports whether err is a TLS failure caused by a
// server presenting its *.plex.direct certificate on a plain address.
func needsPlexDirectFallback(err error) bool {
	var hostnameErr x509.HostnameError
	if errors.As(err, &hostnameErr) && certificateHasPlexDirect(hostnameErr.Certificate) {
		return true
	}

	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		for _, cert := range verifyErr.UnverifiedCertificates {
			if certificateHasPlexDirect(cert) {
				return true
			}
		}
		if verifyErr.Err != nil && strings.Contains(strings.ToLower(verifyErr.Err.Error()), "plex.direct") {
			return true
		}
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "plex.direct")
}

func certificateHasPlexDirect(cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}
	for _, name := range cert.DNSNames {
		if strings.Contains(strings.ToLower(name), "plex.direct") {
			return true
		}
	}
	return false
}

// resolveDirectURL asks plex.tv for the best address of the server that
// issued token. Servers whose access token differs are only used when none
// matches.
func resolveDirectURL(ctx context.Context, account *accountClient, token string) (string, error) {
	resources, err := account.Resources(ctx, token)
	if err != nil {
		return "", err
	}
	servers := filterServers(resources)
	token = strings.TrimSpace(token)
	for _, res := range servers {
		accessToken := strings.TrimSpace(res.AccessToken)
		if accessToken != "" && accessToken != token {
			continue
		}
		if uris := rankConnections(res.Connections); len(uris) > 0 {
			return uris[0], nil
		}
	}
	for _, res := range servers {
		if uris := rankConnections(res.Connections); len(uris) > 0 {
			return uris[0], nil
		}
	}
	return "", errors.New("matching plex server not found in resources response")
}
