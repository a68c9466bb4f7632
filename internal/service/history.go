package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pageza/pantrychef/backend/config"
	"github.com/pageza/pantrychef/backend/internal/model"
)

// FormatHistoryEntry renders one recipe as a human-readable block. Optional
// fields are written only when present; entries are separated by a blank
// line.
func FormatHistoryEntry(r *model.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recipe Name: %s\n", r.Name)
	fmt.Fprintf(&b, "Ingredients: %s\n", strings.Join(r.Ingredients, ", "))
	fmt.Fprintf(&b, "Instructions: %s\n", r.Instructions)
	if r.CuisineType != nil {
		fmt.Fprintf(&b, "Cuisine: %s\n", *r.CuisineType)
	}
	if r.Taste != nil {
		fmt.Fprintf(&b, "Taste: %s\n", *r.Taste)
	}
	if r.PreparationTime != nil {
		fmt.Fprintf(&b, "Preparation Time: %d minutes\n", *r.PreparationTime)
	}
	b.WriteString("\n")
	return b.String()
}

// FileHistoryLog appends entries to a local text file.
type FileHistoryLog struct {
	mu   sync.Mutex
	path string
}

// NewFileHistoryLog creates the parent directory of path if needed.
func NewFileHistoryLog(path string) (*FileHistoryLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	return &FileHistoryLog{path: path}, nil
}

// Append writes one entry. Concurrent appends never interleave.
func (l *FileHistoryLog) Append(_ context.Context, recipe *model.Recipe) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	if _, err := f.WriteString(FormatHistoryEntry(recipe)); err != nil {
		f.Close()
		return fmt.Errorf("failed to write history log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close history log: %w", err)
	}
	return nil
}

// S3PutObjectAPI is the part of the S3 client the history log uses.
type S3PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3HistoryLog stores each entry as its own object, since S3 objects cannot
// be appended to.
type S3HistoryLog struct {
	client S3PutObjectAPI
	bucket string
	prefix string
}

// NewS3HistoryLog writes under recipes/ in the configured bucket.
func NewS3HistoryLog(s3cfg *config.S3Config) *S3HistoryLog {
	return newS3HistoryLog(s3cfg.Client, s3cfg.BucketName)
}

func newS3HistoryLog(client S3PutObjectAPI, bucket string) *S3HistoryLog {
	return &S3HistoryLog{client: client, bucket: bucket, prefix: "recipes/"}
}

// ObjectKey sorts entries by creation time.
func (l *S3HistoryLog) ObjectKey(recipe *model.Recipe) string {
	return fmt.Sprintf("%s%s-%s.txt", l.prefix, recipe.CreatedAt.UTC().Format("20060102T150405.000000000Z"), recipe.ID)
}

func (l *S3HistoryLog) Append(ctx context.Context, recipe *model.Recipe) error {
	key := l.ObjectKey(recipe)
	_, err := l.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(l.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(FormatHistoryEntry(recipe)),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload history entry %s: %w", key, err)
	}
	return nil
}

// MultiHistoryLog appends to every log in order and stops at the first
// failure.
type MultiHistoryLog []HistoryLog

func (m MultiHistoryLog) Append(ctx context.Context, recipe *model.Recipe) error {
	for _, l := range m {
		if err := l.Append(ctx, recipe); err != nil {
			return err
		}
	}
	return nil
}
