package plex

import (
	"sort"
	"strconv"
	"strings"
)

const serverProduct = "Plex Media Server"

type resourceList struct {
	Resources []Resource `xml:"resource"`
}

// Resource is a device registered to a plex.tv account.
type Resource struct {
	Name             string       `xml:"name,attr"`
	Product          string       `xml:"product,attr"`
	AccessToken      string       `xml:"accessToken,attr"`
	ClientIdentifier string       `xml:"clientIdentifier,attr"`
	Provides         string       `xml:"provides,attr"`
	Connections      []Connection `xml:"connections>connection"`
}

// Connection is one address a resource can be reached on.
type Connection struct {
	URI      string `xml:"uri,attr"`
	Protocol string `xml:"protocol,attr"`
	Local    string `xml:"local,attr"`
	Relay    string `xml:"relay,attr"`
	Address  string `xml:"address,attr"`
	Port     string `xml:"port,attr"`
}

// IsServer reports whether the resource is a Plex Media Server.
func (r Resource) IsServer() bool {
	if r.Product == serverProduct {
		return true
	}
	for _, role := range strings.Split(r.Provides, ",") {
		if strings.TrimSpace(role) == "server" {
			return true
		}
	}
	return false
}

func filterServers(resources []Resource) []Resource {
	servers := make([]Resource, 0, len(resources))
	for _, res := range resources {
		if res.IsServer() {
			servers = append(servers, res)
		}
	}
	return servers
}

// rankConnections orders connection URIs best first: https, then
// plex.direct hostnames, then local, with relays last. Ties keep the order
// plex.tv returned.
func rankConnections(connections []Connection) []string {
	type scored struct {
		uri   string
		score int
	}
	candidates := make([]scored, 0, len(connections))
	seen := make(map[string]bool, len(connections))
	for _, conn := range connections {
		uri := strings.TrimRight(strings.TrimSpace(conn.URI), "/")
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		protocol := strings.ToLower(strings.TrimSpace(conn.Protocol))
		score := 0
		if protocol == "https" {
			score += 50
		} else if protocol != "" {
			score -= 10
		}

		if strings.Contains(uri, ".plex.direct") {
			score += 30
		}

		if parseBool(conn.Local) {
			score += 5
		}
		if parseBool(conn.Relay) {
			score -= 5
		}
		candidates = append(candidates, scored{uri: uri, score: score})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	uris := make([]string, len(candidates))
	for i, c := range candidates {
		uris[i] = c.uri
	}
	return uris
}

func parseBool(value string) bool {
	if value == "" {
		return false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return b
}
