// pkg/activities/store.go
package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "activity-store/internal/common/errors"
	"activity-store/internal/common/logger"
	"activity-store/internal/common/metrics"
	"activity-store/internal/common/observability"
)

const (
	opLoad    = "load"
	opLoadRaw = "load_raw"
	opSave    = "save"

	statusSuccess  = "success"
	statusNotFound = "not_found"
	statusError    = "error"
)

// Store reads and writes the whole activity collection as one JSON file.
// It holds no lock; concurrent saves race and the last writer wins.
type Store struct {
	path   string
	mode   os.FileMode
	logger logger.Logger
	obs    *observability.Observability
	newID  func() string
}

type Option func(*Store)

// WithFileMode sets the permission bits used when Save creates the file.
func WithFileMode(mode os.FileMode) Option {
	return func(s *Store) { s.mode = mode }
}

// WithObservability routes spans and otel meters through obs.
func WithObservability(obs *observability.Observability) Option {
	return func(s *Store) { s.obs = obs }
}

// WithOperationIDs overrides the generator for per-operation log correlation ids.
func WithOperationIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(path string, log logger.Logger, opts ...Option) *Store {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Store{
		path:  path,
		mode:  0o644,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = log.WithFields(map[string]interface{}{
		"component": "activity-store",
		"path":      path,
	})
	return s
}

// Path returns the data file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the collection stored in the data file. A missing file is not
// an error: it yields an empty collection. Every call reads and parses the
// file again.
func (s *Store) Load(ctx context.Context) (Activities, error) {
	var out Activities
	found, err := s.load(ctx, opLoad, &out, func() int { return len(out) })
	if err != nil {
		return nil, err
	}
	if !found {
		return Activities{}, nil
	}
	return out, nil
}

// LoadRaw is Load without the object-root requirement: arrays, scalars and
// null are returned exactly as decoded.
func (s *Store) LoadRaw(ctx context.Context) (interface{}, error) {
	var out interface{}
	found, err := s.load(ctx, opLoadRaw, &out, func() int { return itemCount(out) })
	if err != nil {
		return nil, err
	}
	if !found {
		return Activities{}, nil
	}
	return out, nil
}

// Save replaces the data file with activities, indented by two spaces.
// The write is not atomic: a crash mid-write can leave a truncated file.
func (s *Store) Save(ctx context.Context, activities Activities) error {
	log := s.opLogger(opSave)
	ctx, span := s.obs.StartSpan(ctx, "activities."+opSave, attribute.String("activities.path", s.path))
	defer span.End()
	start := time.Now()

	if activities == nil {
		activities = Activities{}
	}

	data, err := encode(activities)
	if err != nil {
		return s.fail(ctx, span, log, opSave, start, "unexpected error saving activities",
			apperrors.NewUnexpectedError(opSave, err))
	}

	if err := s.write(data); err != nil {
		return s.fail(ctx, span, log, opSave, start, "error saving activities", err)
	}

	log.Info("saved activities", map[string]interface{}{"count": len(activities)})
	s.succeed(ctx, span, opSave, start, statusSuccess, len(activities))
	return nil
}

func (s *Store) load(ctx context.Context, op string, target interface{}, count func() int) (bool, error) {
	log := s.opLogger(op)
	ctx, span := s.obs.StartSpan(ctx, "activities."+op, attribute.String("activities.path", s.path))
	defer span.End()
	start := time.Now()

	found, err := s.readInto(target)
	if err != nil {
		msg := "error loading activities"
		if apperrors.IsMalformedData(err) {
			msg = "error parsing JSON file"
		}
		return false, s.fail(ctx, span, log, op, start, msg, err)
	}

	if !found {
		log.Warn("data file not found", nil)
		metrics.StoreDataFileMissing.Inc()
		s.succeed(ctx, span, op, start, statusNotFound, 0)
		return false, nil
	}

	n := count()
	log.Info("loaded activities", map[string]interface{}{"count": n})
	s.succeed(ctx, span, op, start, statusSuccess, n)
	return true, nil
}

func (s *Store) readInto(target interface{}) (bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, apperrors.NewIOFailedError("read", s.path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return false, apperrors.NewIOFailedError("read", s.path, err)
	}

	if err := Decode(data, target); err != nil {
		var invalid *json.InvalidUnmarshalError
		if errors.As(err, &invalid) {
			return false, apperrors.NewUnexpectedError(opLoad, err)
		}
		return false, apperrors.NewDataMalformedError(s.path, err)
	}
	return true, nil
}

func (s *Store) write(data []byte) (err error) {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.mode)
	if err != nil {
		return apperrors.NewIOFailedError("write", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.NewIOFailedError("write", s.path, cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return apperrors.NewIOFailedError("write", s.path, err)
	}
	return nil
}

func (s *Store) opLogger(op string) logger.Logger {
	return s.logger.WithFields(map[string]interface{}{
		"operation":   op,
		"operationId": s.newID(),
	})
}

func (s *Store) succeed(ctx context.Context, span trace.Span, op string, start time.Time, status string, count int) {
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("activities.count", count))

	metrics.StoreOperationsCompleted.WithLabelValues(op).Inc()
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if status == statusSuccess {
		metrics.StoreActivities.Set(float64(count))
	}

	s.obs.RecordOperation(ctx, op, status)
	s.obs.RecordDuration(ctx, op, elapsed, status)
}

// fail logs err once and returns it; callers propagate without logging again.
func (s *Store) fail(ctx context.Context, span trace.Span, log logger.Logger, op string, start time.Time, msg string, err error) error {
	elapsed := time.Since(start)
	stdErr := apperrors.NewErrorHandler(log).Handle(msg, err, nil)

	span.RecordError(stdErr)
	span.SetStatus(codes.Error, stdErr.Message)

	metrics.StoreOperationsFailed.WithLabelValues(op, string(stdErr.Code)).Inc()
	metrics.StoreOperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	s.obs.RecordOperation(ctx, op, statusError)
	s.obs.RecordDuration(ctx, op, elapsed, statusError)
	return stdErr
}

// Decode parses exactly one JSON document into target, keeping numbers as
// json.Number. Trailing data after the document is an error.
func Decode(data []byte, target interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(target); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return errors.New("unexpected data after top-level value")
		}
		return err
	}
	return nil
}

func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func itemCount(v interface{}) int {
	switch t := v.(type) {
	case map[string]interface{}:
		return len(t)
	case []interface{}:
		return len(t)
	default:
		return 0
	}
}
