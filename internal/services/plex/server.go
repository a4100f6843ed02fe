package plex

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"autocollect/internal/catalog"
	"autocollect/internal/logging"
	"autocollect/internal/services"
)

// Section is a library section of a server.
type Section struct {
	Key   string
	Title string
	Type  string
}

// Flattenable reports whether autocollect can list the section's items.
func (s Section) Flattenable() bool {
	return s.Type == sectionMovie || s.Type == sectionShow
}

const (
	sectionMovie = "movie"
	sectionShow  = "show"
)

// Server is a connected Plex Media Server.
type Server struct {
	baseURL string
	token   string
	name    string
	headers clientHeaders
	client  HTTPDoer
	logger  *slog.Logger
}

func newServer(baseURL, token, name string, headers clientHeaders, client HTTPDoer, logger *slog.Logger) *Server {
	return &Server{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		name:    name,
		headers: headers,
		client:  client,
		logger:  logger,
	}
}

// URL returns the base URL the server answered on.
func (s *Server) URL() string { return s.baseURL }

// Name returns the server's friendly name when known.
func (s *Server) Name() string { return s.name }

type identityContainer struct {
	MachineIdentifier string `xml:"machineIdentifier,attr"`
	Version           string `xml:"version,attr"`
}

// Identity checks that the server answers with the current token.
func (s *Server) Identity(ctx context.Context) (string, error) {
	var container identityContainer
	if err := s.get(ctx, "/identity", nil, &container); err != nil {
		return "", err
	}
	return container.MachineIdentifier, nil
}

type sectionsContainer struct {
	Directories []struct {
		Key   string `xml:"key,attr"`
		Title string `xml:"title,attr"`
		Type  string `xml:"type,attr"`
	} `xml:"Directory"`
}

// Sections lists the library sections.
func (s *Server) Sections(ctx context.Context) ([]Section, error) {
	var container sectionsContainer
	if err := s.get(ctx, "/library/sections", nil, &container); err != nil {
		return nil, err
	}
	sections := make([]Section, 0, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" || dir.Title == "" {
			continue
		}
		sections = append(sections, Section{Key: dir.Key, Title: dir.Title, Type: dir.Type})
	}
	return sections, nil
}

type mediaContainer struct {
	Videos      []videoEntry `xml:"Video"`
	Directories []struct {
		RatingKey string `xml:"ratingKey,attr"`
		Title     string `xml:"title,attr"`
		Type      string `xml:"type,attr"`
	} `xml:"Directory"`
}

type videoEntry struct {
	RatingKey        string  `xml:"ratingKey,attr"`
	Type             string  `xml:"type,attr"`
	Title            string  `xml:"title,attr"`
	Year             string  `xml:"year,attr"`
	LibrarySectionID string  `xml:"librarySectionID,attr"`
	Media            []media `xml:"Media"`
	Roles            []tag   `xml:"Role"`
	Collections      []tag   `xml:"Collection"`
}

type media struct {
	Parts []struct {
		File string `xml:"file,attr"`
	} `xml:"Part"`
}

type tag struct {
	Tag   string `xml:"tag,attr"`
	Thumb string `xml:"thumb,attr"`
}

func (v videoEntry) item(sectionKey string) catalog.Item {
	year, _ := strconv.Atoi(strings.TrimSpace(v.Year))
	if v.LibrarySectionID != "" {
		sectionKey = v.LibrarySectionID
	}
	itemType := catalog.TypeMovie
	if v.Type == string(catalog.TypeEpisode) {
		itemType = catalog.TypeEpisode
	}
	var files []string
	for _, m := range v.Media {
		for _, part := range m.Parts {
			if part.File != "" {
				files = append(files, part.File)
			}
		}
	}
	return catalog.Item{
		Key:        v.RatingKey,
		SectionKey: sectionKey,
		Type:       itemType,
		Title:      v.Title,
		Year:       year,
		Files:      files,
	}
}

// Flatten lists every movie of a movie section, or every episode of every
// show of a show section in show order then episode order.
func (s *Server) Flatten(ctx context.Context, section Section) ([]catalog.Item, error) {
	if !section.Flattenable() {
		return nil, services.Wrap(services.ErrDiscovery, "plex", "flatten",
			fmt.Sprintf("section %q has unsupported type %q", section.Title, section.Type), nil)
	}
	var container mediaContainer
	if err := s.get(ctx, "/library/sections/"+url.PathEscape(section.Key)+"/all", nil, &container); err != nil {
		return nil, err
	}
	var items []catalog.Item
	switch section.Type {
	case sectionMovie:
		items = make([]catalog.Item, 0, len(container.Videos))
		for _, video := range container.Videos {
			items = append(items, video.item(section.Key))
		}
	case sectionShow:
		for _, show := range container.Directories {
			if show.RatingKey == "" {
				continue
			}
			var leaves mediaContainer
			if err := s.get(ctx, "/library/metadata/"+url.PathEscape(show.RatingKey)+"/allLeaves", nil, &leaves); err != nil {
				return nil, err
			}
			for _, video := range leaves.Videos {
				items = append(items, video.item(section.Key))
			}
		}
	}
	return items, nil
}

// metadata fetches the current tags of one item.
func (s *Server) metadata(ctx context.Context, key string) (videoEntry, error) {
	var container mediaContainer
	if err := s.get(ctx, "/library/metadata/"+url.PathEscape(key), nil, &container); err != nil {
		return videoEntry{}, err
	}
	if len(container.Videos) == 0 {
		return videoEntry{}, services.Wrap(services.ErrNotFound, "plex", "metadata", "item "+key, nil)
	}
	return container.Videos[0], nil
}

func (s *Server) get(ctx context.Context, path string, query url.Values, out any) error {
	return s.do(ctx, http.MethodGet, path, query, out)
}

func (s *Server) do(ctx context.Context, method, path string, query url.Values, out any) error {
	target := s.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return fmt.Errorf("build plex request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")
	s.headers.apply(req, s.token)

	logging.WithContext(ctx, s.logger).Debug("plex request",
		logging.String("method", method),
		logging.String("path", path),
	)
	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "plex", method+" "+path, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return services.Wrap(statusMarker(resp.StatusCode), "plex", method+" "+path,
			fmt.Sprintf("returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := xml.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrTransient, "plex", method+" "+path, "decode response", err)
	}
	return nil
}

func statusMarker(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.ErrAuthentication
	case http.StatusNotFound:
		return services.ErrNotFound
	default:
		return services.ErrTransient
	}
}
