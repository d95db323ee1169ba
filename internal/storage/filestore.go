package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/spec-kit/helpdesk/internal/config"
)

var (
	ErrNotFound       = errors.New("file not found")
	ErrInvalidPath    = errors.New("invalid file path")
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrTooLarge       = errors.New("file exceeds size limit")
	ErrEmpty          = errors.New("file is empty")
)

const (
	DefaultFolder   = "uploads"
	SharedFolder    = "shared"
	DefaultMaxBytes = 10 * 1024 * 1024
	sniffLen        = 3072
	maxBaseNameLen  = 100
)

// DefaultAllowedExtensions covers images, office documents, text and archives.
var DefaultAllowedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".bmp",
	".pdf", ".doc", ".docx", ".txt", ".rtf",
	".xlsx", ".xls", ".csv",
	".zip", ".rar", ".7z",
}

// executable content is refused whatever its extension claims.
var blockedMIME = []string{
	"application/x-executable",
	"application/x-elf",
	"application/x-msdownload",
	"application/vnd.microsoft.portable-executable",
	"application/x-mach-binary",
}

// StoredFile describes a file written by Store.
type StoredFile struct {
	Handle       string
	OriginalName string
	Size         int64
	ContentType  string
}

// FileInfo describes a stored file on disk.
type FileInfo struct {
	Name        string
	Handle      string
	Size        int64
	ModTime     time.Time
	Extension   string
	ContentType string
}

// Store keeps attachments on the local disk under a single root.
type Store struct {
	root     string
	maxBytes int64
	allowed  map[string]struct{}
	now      func() time.Time
}

// NewStore creates the root directory if needed.
func NewStore(cfg config.StorageConfig) (*Store, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	allowed := make(map[string]struct{}, len(DefaultAllowedExtensions))
	for _, ext := range DefaultAllowedExtensions {
		allowed[ext] = struct{}{}
	}
	return &Store{root: root, maxBytes: maxBytes, allowed: allowed, now: time.Now}, nil
}

// Sub returns a store with the same limits whose root is folder below this
// one. Handles of the sub store cannot reach siblings of folder.
func (s *Store) Sub(folder string) (*Store, error) {
	dir, err := s.resolve(SanitizeFolder(folder))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage folder: %w", err)
	}
	sub := *s
	sub.root = dir
	return &sub, nil
}

// MaxBytes is the configured size ceiling.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// ValidateType reports whether the file name carries an allowed extension.
func (s *Store) ValidateType(fileName string) bool {
	_, ok := s.allowed[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// ValidateSize reports whether size is within (0, maxBytes].
func (s *Store) ValidateSize(size int64) bool {
	return size > 0 && size <= s.maxBytes
}

// Store writes r under folder and returns its handle. The body is capped at
// maxBytes while streaming so a lying Content-Length cannot overrun it.
func (s *Store) Store(ctx context.Context, fileName, folder string, r io.Reader) (*StoredFile, error) {
	if !s.ValidateType(fileName) {
		return nil, ErrTypeNotAllowed
	}

	dir := SanitizeFolder(folder)
	handle := filepath.ToSlash(filepath.Join(dir, s.UniqueName(fileName)))
	full, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}

	reader := &ctxReader{ctx: ctx, r: io.LimitReader(r, s.maxBytes+1)}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	if n == 0 {
		return nil, ErrEmpty
	}
	detected := mimetype.Detect(head)
	for _, blocked := range blockedMIME {
		if detected.Is(blocked) {
			return nil, ErrTypeNotAllowed
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), reader))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	if written > s.maxBytes {
		return nil, ErrTooLarge
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return nil, err
	}

	return &StoredFile{
		Handle:       handle,
		OriginalName: fileName,
		Size:         written,
		ContentType:  detected.String(),
	}, nil
}

// Retrieve reads the whole file behind handle.
func (s *Store) Retrieve(ctx context.Context, handle string) ([]byte, error) {
	full, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(&ctxReader{ctx: ctx, r: f})
}

// Delete removes the file behind handle; false means it did not exist.
func (s *Store) Delete(ctx context.Context, handle string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	full, err := s.resolve(handle)
	if err != nil {
		return false, err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Info describes the file behind handle.
func (s *Store) Info(handle string) (*FileInfo, error) {
	full, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if stat.IsDir() {
		return nil, ErrNotFound
	}
	return s.describe(full, stat)
}

// List returns the files directly inside folder, newest first.
func (s *Store) List(folder string) ([]FileInfo, error) {
	dir, err := s.resolve(SanitizeFolder(folder))
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		info, err := s.describe(filepath.Join(dir, entry.Name()), stat)
		if err != nil {
			continue
		}
		files = append(files, *info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}

func (s *Store) describe(full string, stat os.FileInfo) (*FileInfo, error) {
	rel, err := filepath.Rel(s.root, full)
	if err != nil {
		return nil, err
	}
	contentType := "application/octet-stream"
	if detected, err := mimetype.DetectFile(full); err == nil {
		contentType = detected.String()
	}
	return &FileInfo{
		Name:        stat.Name(),
		Handle:      filepath.ToSlash(rel),
		Size:        stat.Size(),
		ModTime:     stat.ModTime(),
		Extension:   strings.ToLower(filepath.Ext(stat.Name())),
		ContentType: contentType,
	}, nil
}

// resolve maps a handle to an absolute path that is guaranteed to sit
// inside the root.
func (s *Store) resolve(handle string) (string, error) {
	handle = strings.ReplaceAll(strings.TrimSpace(handle), "\\", "/")
	if handle == "" || strings.ContainsRune(handle, 0) {
		return "", ErrInvalidPath
	}
	for _, segment := range strings.Split(handle, "/") {
		if segment == ".." {
			return "", ErrInvalidPath
		}
	}
	full := filepath.Join(s.root, filepath.FromSlash(filepath.Clean("/"+handle)))
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidPath
	}
	return full, nil
}

// UniqueName builds name_yyyyMMdd_HHmmss_random.ext from an uploaded file name.
func (s *Store) UniqueName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(strings.ReplaceAll(original, "\\", "/")), filepath.Ext(original))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if ext != "" {
		ext = "." + SanitizeName(strings.TrimPrefix(ext, "."))
	}
	return fmt.Sprintf("%s_%s_%s%s", SanitizeName(base), s.now().UTC().Format("20060102_150405"), suffix, ext)
}

var asciiFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Map(func(r rune) rune {
		switch r {
		case 'ı':
			return 'i'
		case 'ß':
			return 's'
		case 'ø':
			return 'o'
		case 'Ø':
			return 'O'
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		case 'ł':
			return 'l'
		case 'Ł':
			return 'L'
		}
		return r
	}),
	norm.NFC,
)

// SanitizeName folds accents to ASCII and replaces everything outside
// [A-Za-z0-9._] with an underscore.
func SanitizeName(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	if len(out) > maxBaseNameLen {
		out = out[:maxBaseNameLen]
	}
	return out
}

// SanitizeFolder keeps a relative, traversal-free folder path.
func SanitizeFolder(folder string) string {
	parts := strings.FieldsFunc(folder, func(r rune) bool { return r == '/' || r == '\\' })
	clean := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "." || part == ".." {
			continue
		}
		clean = append(clean, SanitizeName(part))
	}
	if len(clean) == 0 {
		return DefaultFolder
	}
	return strings.Join(clean, "/")
}

// HumanSize renders a byte count as B/KB/MB/GB/TB.
func HumanSize(size int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	value := float64(size)
	i := 0
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	out := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
	return out + " " + units[i]
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
