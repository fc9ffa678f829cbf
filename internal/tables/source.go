package tables

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/runewire/internal/errors"
	"github.com/vango-dev/runewire/pkg/protocol"
)

// maxTableSize bounds a table download. A full table is a few kilobytes.
const maxTableSize = 1 << 20

// ObjectGetter fetches S3 objects. *s3.Client implements it.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader loads length tables from files and S3.
type Loader struct {
	// S3 fetches s3:// sources. Nil rejects them.
	S3 ObjectGetter

	// Logger receives load events.
	// Default: slog.Default().
	Logger *slog.Logger
}

// Location is a parsed s3:// source.
type Location struct {
	Bucket    string
	Key       string
	VersionID string
}

// ParseS3URL parses s3://bucket/key[?versionId=v]. ok is false when source
// is not an s3 URL.
func ParseS3URL(source string) (loc Location, ok bool, err error) {
	if !strings.HasPrefix(source, "s3://") {
		return Location{}, false, nil
	}
	u, err := url.Parse(source)
	if err != nil {
		return Location{}, true, err
	}
	loc = Location{
		Bucket:    u.Host,
		Key:       strings.TrimPrefix(u.Path, "/"),
		VersionID: u.Query().Get("versionId"),
	}
	if loc.Bucket == "" || loc.Key == "" {
		return Location{}, true, fmt.Errorf("tables: %q needs a bucket and a key", source)
	}
	return loc, true, nil
}

// Load reads the table at source, a file path or s3:// URL. An empty source
// returns protocol.DefaultLengthTable.
func (l *Loader) Load(ctx context.Context, source string) (*protocol.LengthTable, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if source == "" {
		logger.Debug("using built-in length table", "revision", protocol.DefaultRevision)
		return protocol.DefaultLengthTable, nil
	}

	loc, isS3, err := ParseS3URL(source)
	if err != nil {
		return nil, errors.New("R201").Wrap(err).
			WithSuggestion("Use s3://bucket/path/to/table.yaml")
	}

	var data []byte
	if isS3 {
		data, err = l.fetch(ctx, loc)
	} else {
		data, err = readFile(source)
	}
	if err != nil {
		return nil, err
	}

	table, err := Parse(source, data)
	if err != nil {
		return nil, err
	}
	defined := 0
	for _, n := range table.Entries() {
		if n != protocol.Undefined {
			defined++
		}
	}
	logger.Info("length table loaded", "source", source, "revision", table.Revision(), "opcodes", defined)
	return table, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.New("R201").
				WithDetail("No length table at " + path).
				WithSuggestion("Run 'runewire table export' to write the built-in table")
		}
		return nil, errors.New("R201").Wrap(err)
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, loc Location) ([]byte, error) {
	if l.S3 == nil {
		return nil, errors.New("R203").WithDetail("No S3 client is configured")
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	}
	if loc.VersionID != "" {
		input.VersionId = aws.String(loc.VersionID)
	}
	out, err := l.S3.GetObject(ctx, input)
	if err != nil {
		return nil, errors.New("R203").Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxTableSize+1))
	if err != nil {
		return nil, errors.New("R203").Wrap(err)
	}
	if len(data) > maxTableSize {
		return nil, errors.New("R202").
			WithDetail(fmt.Sprintf("s3://%s/%s is larger than %d bytes", loc.Bucket, loc.Key, maxTableSize))
	}
	return data, nil
}

// S3Options configures NewS3Client.
type S3Options struct {
	Region string

	// Endpoint overrides the service endpoint, for S3-compatible stores.
	// Requests then use path-style addressing.
	Endpoint string
}

// NewS3Client creates an S3 client from the default AWS configuration
// chain: environment, shared config and credentials files (AWS_PROFILE),
// SSO, web identity and container or instance roles.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.New("R203").Wrap(err).
			WithDetail("Could not load AWS configuration")
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
