// package formatter exports playlists to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/musicdash/internal/models"
	"github.com/desertthunder/musicdash/internal/shared"
)

// Format is a playlist export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Export renders p in format f.
func Export(p *models.Playlist, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(p)
	case FormatMarkdown:
		return ExportToMarkdown(p)
	case FormatText:
		return ExportToText(p)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// ExportToCSV converts a playlist to CSV with columns: ID, Title, Artist, Source, URL
func ExportToCSV(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Source", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range p.Songs {
		record := []string{song.ID, song.Title, song.Artist, song.Source, song.URL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to Markdown, linking songs that have a URL
func ExportToMarkdown(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", p.Name)

	if p.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n", len(p.Songs))
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Updated**: %s\n", p.UpdatedAt.Format("2006-01-02"))
	}
	buf.WriteString("\n## Songs\n\n")

	for i, song := range p.Songs {
		title := song.DisplayTitle()
		if song.URL != "" {
			title = fmt.Sprintf("[%s](%s)", title, song.URL)
		}
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.DisplayArtist(), title)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text
func ExportToText(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", p.Description)
	}
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(p.Songs))

	for i, song := range p.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.DisplayArtist(), song.DisplayTitle())
	}

	return buf.Bytes(), nil
}

// playlistMetadata is a playlist without its songs.
type playlistMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SongCount   int    `json:"songCount"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without songs)
func ToMetadataJSON(p *models.Playlist) ([]byte, error) {
	meta := playlistMetadata{ID: p.ID, Name: p.Name, Description: p.Description, SongCount: len(p.Songs)}
	if !p.CreatedAt.IsZero() {
		meta.CreatedAt = p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	if !p.UpdatedAt.IsZero() {
		meta.UpdatedAt = p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	return json.MarshalIndent(meta, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_songs.csv and {base}_metadata.json
func WriteCSVExport(p *models.Playlist, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = p.ID
	}

	csvData, err := ExportToCSV(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := baseFilepath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(p)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{SongsFile: songsFile, MetadataFile: metadataFile}, nil
}

// WriteMarkdownExport writes {dir}/README.md. Directory name defaults to the playlist ID.
func WriteMarkdownExport(p *models.Playlist, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = p.ID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return mdFile, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_songs.txt as the filename.
func WriteTextExport(p *models.Playlist, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_songs.txt", p.ID)
	}

	textData, err := ExportToText(p)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteExport writes p in format f under path and returns the files created.
func WriteExport(p *models.Playlist, f Format, path string) ([]string, error) {
	switch f {
	case FormatCSV:
		res, err := WriteCSVExport(p, path)
		if err != nil {
			return nil, err
		}
		return []string{res.SongsFile, res.MetadataFile}, nil
	case FormatMarkdown:
		file, err := WriteMarkdownExport(p, path)
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	case FormatText:
		file, err := WriteTextExport(p, path)
		if err != nil {
			return nil, err
		}
		return []string{file}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}
