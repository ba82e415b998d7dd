package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-user-directory-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-user-directory-go/pkg/utilities"
)

// RecordStore is the persistence capability the merge engine depends on.
// Lookups that match nothing return (nil, nil); errors are storage failures.
type RecordStore interface {
	FindAll(ctx context.Context) ([]entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByUsernameLike(ctx context.Context, username string) ([]entity.User, error)
	Save(ctx context.Context, u entity.User) (*entity.User, error)
}

// ExternalSource is the read-only upstream capability. Lookups that match
// nothing return (nil, nil) or an empty slice; errors are transport failures.
type ExternalSource interface {
	GetAll(ctx context.Context) ([]entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) ([]entity.User, error)
}

var (
	ErrNotFound       = errors.New("user not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// UserService merges user records from the external source and the local
// record store, stamping each returned record with its origin.
//
// Failure policy: external transport errors never fail a read; the result
// degrades to local records only. Record store errors always propagate.
type UserService struct {
	store    RecordStore
	external ExternalSource
	logger   *zap.SugaredLogger
	newID    func() string
}

func NewUserService(store RecordStore, external ExternalSource, logger *zap.SugaredLogger, newID func() string) *UserService {
	if newID == nil {
		newID = utilities.NewKSUID
	}
	return &UserService{store: store, external: external, logger: logger, newID: newID}
}

type listResult struct {
	users []entity.User
	err   error
}

type lookupResult struct {
	user *entity.User
	err  error
}

// ListAll returns every record from both sources: the external batch first,
// then the internal batch, each in source order. No dedup across origins.
func (s *UserService) ListAll(ctx context.Context) ([]entity.User, error) {
	extCh := make(chan listResult, 1)
	go func() {
		users, err := s.external.GetAll(ctx)
		extCh <- listResult{users: users, err: err}
	}()

	internal, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("record store find all: %w", err)
	}

	ext := <-extCh
	external := ext.users
	if ext.err != nil {
		s.logger.Warnw("external source unavailable, serving local records only", "err", ext.err)
		external = nil
	}

	out := make([]entity.User, 0, len(external)+len(internal))
	out = append(out, entity.TagAll(external, entity.OriginExternal)...)
	out = append(out, entity.TagAll(internal, entity.OriginInternal)...)
	return out, nil
}

// GetByID returns the record with the given id. The external match wins when
// both sources have one; an external failure falls back to the local store.
func (s *UserService) GetByID(ctx context.Context, id string) (*entity.User, error) {
	extCh := make(chan lookupResult, 1)
	go func() {
		u, err := s.external.GetByID(ctx, id)
		extCh <- lookupResult{user: u, err: err}
	}()

	internal, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("record store find by id: %w", err)
	}

	ext := <-extCh
	if ext.err != nil {
		s.logger.Warnw("external lookup failed, falling back to record store", "id", id, "err", ext.err)
	} else if ext.user != nil {
		u := entity.WithOrigin(*ext.user, entity.OriginExternal)
		return &u, nil
	}
	if internal != nil {
		u := entity.WithOrigin(*internal, entity.OriginInternal)
		return &u, nil
	}
	return nil, ErrNotFound
}

// GetByUsername returns the single best match for an exact username: the
// first external match when present, else the local exact match.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username query parameter is required", ErrInvalidRequest)
	}

	extCh := make(chan listResult, 1)
	go func() {
		users, err := s.external.GetByUsername(ctx, username)
		extCh <- listResult{users: users, err: err}
	}()

	internal, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("record store find by username: %w", err)
	}

	ext := <-extCh
	if ext.err != nil {
		s.logger.Warnw("external lookup failed, falling back to record store", "username", username, "err", ext.err)
	} else if len(ext.users) > 0 {
		u := entity.WithOrigin(ext.users[0], entity.OriginExternal)
		return &u, nil
	}
	if internal != nil {
		u := entity.WithOrigin(*internal, entity.OriginInternal)
		return &u, nil
	}
	return nil, ErrNotFound
}

// SearchByUsername returns every match from both sources: tagged external
// matches first, then local pattern matches.
func (s *UserService) SearchByUsername(ctx context.Context, username string) ([]entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username query parameter is required", ErrInvalidRequest)
	}

	extCh := make(chan listResult, 1)
	go func() {
		users, err := s.external.GetByUsername(ctx, username)
		extCh <- listResult{users: users, err: err}
	}()

	internal, err := s.store.FindByUsernameLike(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("record store find by username like: %w", err)
	}

	ext := <-extCh
	external := ext.users
	if ext.err != nil {
		s.logger.Warnw("external source unavailable, serving local matches only", "username", username, "err", ext.err)
		external = nil
	}

	out := make([]entity.User, 0, len(external)+len(internal))
	out = append(out, entity.TagAll(external, entity.OriginExternal)...)
	out = append(out, entity.TagAll(internal, entity.OriginInternal)...)
	return out, nil
}

// Create persists the record in the local store and returns it tagged
// INTERNAL. Any origin on the input is discarded; a missing id is filled
// with a generated one.
func (s *UserService) Create(ctx context.Context, in entity.User) (*entity.User, error) {
	in.Origin = ""
	if in.ID == "" {
		in.ID = s.newID()
	}
	saved, err := s.store.Save(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("record store save: %w", err)
	}
	u := entity.WithOrigin(*saved, entity.OriginInternal)
	return &u, nil
}

// Replace performs a full replace of the local record with the given id,
// creating it when absent. The body's id and origin are overridden.
func (s *UserService) Replace(ctx context.Context, id string, in entity.User) (*entity.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id path parameter is required", ErrInvalidRequest)
	}
	in.ID = id
	in.Origin = ""
	saved, err := s.store.Save(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("record store save: %w", err)
	}
	u := entity.WithOrigin(*saved, entity.OriginInternal)
	return &u, nil
}
