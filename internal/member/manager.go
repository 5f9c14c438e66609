package member

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"familytree/internal/family"
	"familytree/internal/model"
	"familytree/internal/repository"
	"familytree/internal/telemetry"
	"familytree/internal/validator"

	"github.com/google/uuid"
)

// Manager runs every member operation as one load, mutate, save cycle.
// Writes are serialized inside the process; separate processes sharing a
// document still overwrite each other's changes.
type Manager struct {
	repo      repository.MemberRepository
	validator *validator.Validator
	recorder  telemetry.Recorder
	logger    *slog.Logger
	newID     func() (string, error)

	mu sync.Mutex
}

func NewManager(repo repository.MemberRepository, v *validator.Validator, recorder telemetry.Recorder, logger *slog.Logger) *Manager {
	return &Manager{
		repo:      repo,
		validator: v,
		recorder:  recorder,
		logger:    logger,
		newID:     newMemberID,
	}
}

// newMemberID returns a time-ordered UUID so that the older member of a
// couple sorts first.
func newMemberID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate member id: %w", err)
	}
	return id.String(), nil
}

func (m *Manager) List(ctx context.Context) ([]model.Member, error) {
	return m.repo.Load(ctx)
}

func (m *Manager) Get(ctx context.Context, id string) (model.Member, error) {
	members, err := m.repo.Load(ctx)
	if err != nil {
		return model.Member{}, err
	}

	found, ok := family.Find(members, id)
	if !ok {
		return model.Member{}, fmt.Errorf("%s: %w", id, family.ErrMemberNotFound)
	}
	return found, nil
}

// Tree loads the collection and builds the display hierarchy.
func (m *Manager) Tree(ctx context.Context) (family.Tree, error) {
	members, err := m.repo.Load(ctx)
	if err != nil {
		return family.Tree{}, err
	}

	start := time.Now()
	tree, err := family.Build(members)
	m.recorder.RecordTreeBuild(ctx, len(members), time.Since(start))
	if err != nil {
		m.logger.WarnContext(ctx, "Family tree could not be built", "error", err)
		return family.Tree{}, err
	}

	return tree, nil
}

func (m *Manager) Stats(ctx context.Context) (family.Stats, error) {
	members, err := m.repo.Load(ctx)
	if err != nil {
		return family.Stats{}, err
	}
	return family.ComputeStats(members), nil
}

// Add stores a new member under a freshly generated id.
func (m *Manager) Add(ctx context.Context, input model.Member) (model.Member, error) {
	input, err := m.prepare(input)
	if err != nil {
		return model.Member{}, err
	}

	members, err := m.mutate(ctx, "add", func(members []model.Member) ([]model.Member, error) {
		return family.Add(members, input)
	})
	if err != nil {
		return model.Member{}, err
	}

	created, _ := family.Find(members, input.ID)
	m.logger.InfoContext(ctx, "Member added", "member_id", created.ID, "parent_id", created.ParentID, "spouse_id", created.SpouseID)
	return created, nil
}

// AddChild stores a new member as a child of parentID.
func (m *Manager) AddChild(ctx context.Context, parentID string, input model.Member) (model.Member, error) {
	input.ParentID = parentID
	input, err := m.prepare(input)
	if err != nil {
		return model.Member{}, err
	}

	members, err := m.mutate(ctx, "add_child", func(members []model.Member) ([]model.Member, error) {
		if _, ok := family.Find(members, parentID); !ok {
			return nil, fmt.Errorf("parent %s: %w", parentID, family.ErrMemberNotFound)
		}
		return family.Add(members, input)
	})
	if err != nil {
		return model.Member{}, err
	}

	created, _ := family.Find(members, input.ID)
	m.logger.InfoContext(ctx, "Child added", "member_id", created.ID, "parent_id", parentID)
	return created, nil
}

// AddSpouse stores a new member married to personID. A previous partner of
// personID is unlinked.
func (m *Manager) AddSpouse(ctx context.Context, personID string, input model.Member) (model.Member, error) {
	input.SpouseID = personID
	input, err := m.prepare(input)
	if err != nil {
		return model.Member{}, err
	}

	members, err := m.mutate(ctx, "add_spouse", func(members []model.Member) ([]model.Member, error) {
		return family.Add(members, input)
	})
	if err != nil {
		return model.Member{}, err
	}

	created, _ := family.Find(members, input.ID)
	m.logger.InfoContext(ctx, "Spouse added", "member_id", created.ID, "spouse_id", personID)
	return created, nil
}

// PartnerError names the half of a new couple that failed validation.
type PartnerError struct {
	Role string
	Err  error
}

func (e *PartnerError) Error() string {
	return e.Role + ": " + e.Err.Error()
}

func (e *PartnerError) Unwrap() error {
	return e.Err
}

// AddCouple stores two new members married to each other, both children of
// parentID when it is set. The husband is the primary of the pair.
func (m *Manager) AddCouple(ctx context.Context, husband, wife model.Member, parentID string) (model.Member, model.Member, error) {
	husband.ParentID, wife.ParentID = parentID, parentID
	husband.SpouseID, wife.SpouseID = "", ""

	husband, err := m.prepare(husband)
	if err != nil {
		return model.Member{}, model.Member{}, &PartnerError{Role: "husband", Err: err}
	}
	wife, err = m.prepare(wife)
	if err != nil {
		return model.Member{}, model.Member{}, &PartnerError{Role: "wife", Err: err}
	}

	members, err := m.mutate(ctx, "add_couple", func(members []model.Member) ([]model.Member, error) {
		if parentID != "" {
			if _, ok := family.Find(members, parentID); !ok {
				return nil, fmt.Errorf("parent %s: %w", parentID, family.ErrMemberNotFound)
			}
		}
		return family.AddCouple(members, husband, wife)
	})
	if err != nil {
		return model.Member{}, model.Member{}, err
	}

	h, _ := family.Find(members, husband.ID)
	w, _ := family.Find(members, wife.ID)
	m.logger.InfoContext(ctx, "Couple added", "husband_id", h.ID, "wife_id", w.ID, "parent_id", parentID)
	return h, w, nil
}

// Update replaces the member with the given id, keeping its identity and
// position.
func (m *Manager) Update(ctx context.Context, id string, input model.Member) (model.Member, error) {
	input = input.Normalize()
	input.ID = id
	if err := m.validate(input); err != nil {
		return model.Member{}, err
	}

	members, err := m.mutate(ctx, "update", func(members []model.Member) ([]model.Member, error) {
		return family.Update(members, input)
	})
	if err != nil {
		return model.Member{}, err
	}

	updated, _ := family.Find(members, id)
	m.logger.InfoContext(ctx, "Member updated", "member_id", id)
	return updated, nil
}

// Delete removes the member and unlinks its spouse. Its children remain
// and are shown as roots.
func (m *Manager) Delete(ctx context.Context, id string) error {
	_, err := m.mutate(ctx, "delete", func(members []model.Member) ([]model.Member, error) {
		return family.Delete(members, id)
	})
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "Member deleted", "member_id", id)
	return nil
}

func (m *Manager) ChildDraft(ctx context.Context, parentID string) (model.Member, error) {
	parent, err := m.Get(ctx, parentID)
	if err != nil {
		return model.Member{}, err
	}
	return family.ChildDraft(parent), nil
}

func (m *Manager) SpouseDraft(ctx context.Context, personID string) (model.Member, error) {
	person, err := m.Get(ctx, personID)
	if err != nil {
		return model.Member{}, err
	}
	return family.SpouseDraft(person), nil
}

// CoupleDraft prefills a couple under parentID. An empty parentID drafts a
// root couple.
func (m *Manager) CoupleDraft(ctx context.Context, parentID string) (husband, wife model.Member, err error) {
	var parent model.Member
	if parentID != "" {
		if parent, err = m.Get(ctx, parentID); err != nil {
			return model.Member{}, model.Member{}, err
		}
	}
	husband, wife = family.CoupleDraft(parent)
	return husband, wife, nil
}

// HealthCheck reports whether the backing store is reachable.
func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.repo.HealthCheck(ctx)
}

// prepare normalizes and validates a new member and assigns its id.
func (m *Manager) prepare(input model.Member) (model.Member, error) {
	input = input.Normalize()
	input.Primary = false

	id, err := m.newID()
	if err != nil {
		return model.Member{}, err
	}
	input.ID = id

	if err := m.validate(input); err != nil {
		return model.Member{}, err
	}
	return input, nil
}

func (m *Manager) validate(input model.Member) error {
	if err := m.validator.Validate(input); err != nil {
		return fmt.Errorf("invalid member: %w", err)
	}
	return nil
}

// mutate applies fn to the stored collection and saves the result. Nothing
// is saved when fn fails or when it would turn a consistent collection
// into one with a parent cycle.
func (m *Manager) mutate(ctx context.Context, operation string, fn func([]model.Member) ([]model.Member, error)) (members []model.Member, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() {
		m.recorder.RecordMutation(ctx, operation, err == nil)
		if err != nil {
			m.logger.WarnContext(ctx, "Member mutation failed", "operation", operation, "error", err)
		}
	}()

	current, err := m.repo.Load(ctx)
	if err != nil {
		return nil, err
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}

	if family.Validate(current) == nil {
		if err := family.Validate(next); err != nil {
			return nil, err
		}
	}

	if err := m.repo.Save(ctx, next); err != nil {
		return nil, err
	}

	return next, nil
}
