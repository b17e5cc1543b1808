package narrative

import (
	"strings"
	"time"

	apperrors "github.com/louisbranch/dramaturge/internal/platform/errors"
)

// BeatID identifies a story beat. Aggregates hold these instead of beat
// values so storage, not in-memory aliasing, governs consistency.
type BeatID string

// BeatStatus is the beat's one-way publication state.
type BeatStatus string

const (
	BeatDraft     BeatStatus = "draft"
	BeatPublished BeatStatus = "published"
)

// Beat is one narrative moment, a node in the league's story DAG. Edges are
// held as id sets on the beat itself; arcs only keep an ordered id list.
type Beat struct {
	ID                BeatID
	LeagueID          string
	Type              BeatType
	Title             string
	Description       string
	Phase             Phase
	TensionImpact     int
	OccurredAt        time.Time
	CreatedAt         time.Time
	ParentBeatIDs     []BeatID
	ChildBeatIDs      []BeatID
	ArcID             ArcID
	WeekNumber        int
	InvolvedPlayerIDs []string
	Metadata          map[string]string
	Status            BeatStatus
	PublishedAt       *time.Time
}

// BeatInput carries the caller-supplied fields for NewBeat.
type BeatInput struct {
	LeagueID    string
	Type        BeatType
	Title       string
	Description string
	Phase       Phase

	// TensionImpact overrides the type's default when non-nil.
	TensionImpact *int

	// OccurredAt defaults to the construction time when nil.
	OccurredAt *time.Time

	ArcID             ArcID
	WeekNumber        int
	InvolvedPlayerIDs []string
	Metadata          map[string]string
}

// NewBeat validates input and constructs a draft beat.
func NewBeat(input BeatInput, now func() time.Time, idGenerator func() (string, error)) (Beat, error) {
	now, idGenerator = normalizeDeps(now, idGenerator)
	input.LeagueID = strings.TrimSpace(input.LeagueID)
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)

	if input.LeagueID == "" {
		return Beat{}, apperrors.New(apperrors.CodeBeatEmptyLeagueID, "beat league id is required")
	}
	if input.Type == "" {
		return Beat{}, apperrors.New(apperrors.CodeBeatMissingType, "beat type is required")
	}
	if _, err := ParseBeatType(string(input.Type)); err != nil {
		return Beat{}, err
	}
	if input.Title == "" {
		return Beat{}, apperrors.New(apperrors.CodeBeatEmptyTitle, "beat title is required")
	}
	if input.Phase == "" {
		return Beat{}, apperrors.New(apperrors.CodeBeatMissingPhase, "beat phase is required")
	}
	if _, err := ParsePhase(string(input.Phase)); err != nil {
		return Beat{}, err
	}

	id, err := idGenerator()
	if err != nil {
		return Beat{}, err
	}

	createdAt := now().UTC()
	occurredAt := createdAt
	if input.OccurredAt != nil {
		occurredAt = input.OccurredAt.UTC()
	}
	impact := input.Type.DefaultTensionImpact()
	if input.TensionImpact != nil {
		impact = *input.TensionImpact
	}

	beat := Beat{
		ID:            BeatID(id),
		LeagueID:      input.LeagueID,
		Type:          input.Type,
		Title:         input.Title,
		Description:   input.Description,
		Phase:         input.Phase,
		TensionImpact: impact,
		OccurredAt:    occurredAt,
		CreatedAt:     createdAt,
		ArcID:         input.ArcID,
		WeekNumber:    input.WeekNumber,
		Metadata:      map[string]string{},
		Status:        BeatDraft,
	}
	for _, playerID := range input.InvolvedPlayerIDs {
		beat.AddInvolvedPlayer(playerID)
	}
	for key, value := range input.Metadata {
		beat.Metadata[key] = value
	}
	return beat, nil
}

// AddParent links an upstream beat. A beat may never name itself; longer
// cycles are the caller's concern.
func (b *Beat) AddParent(id BeatID) error {
	if err := b.validateEdge(id); err != nil {
		return err
	}
	b.ParentBeatIDs = appendBeatID(b.ParentBeatIDs, id)
	return nil
}

// AddChild links a downstream beat, with the same self-reference guard as
// AddParent.
func (b *Beat) AddChild(id BeatID) error {
	if err := b.validateEdge(id); err != nil {
		return err
	}
	b.ChildBeatIDs = appendBeatID(b.ChildBeatIDs, id)
	return nil
}

// RemoveParent unlinks an upstream beat. Removing an absent edge is a no-op.
func (b *Beat) RemoveParent(id BeatID) {
	b.ParentBeatIDs = removeBeatID(b.ParentBeatIDs, id)
}

// RemoveChild unlinks a downstream beat.
func (b *Beat) RemoveChild(id BeatID) {
	b.ChildBeatIDs = removeBeatID(b.ChildBeatIDs, id)
}

func (b *Beat) validateEdge(id BeatID) error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.CodeArcEmptyBeatID, "beat edge id is required")
	}
	if id == b.ID {
		return apperrors.WithMetadata(apperrors.CodeBeatSelfReference,
			"beat cannot reference itself", map[string]string{"beat_id": string(b.ID)})
	}
	return nil
}

// AddInvolvedPlayer records a participant. Duplicates collapse.
func (b *Beat) AddInvolvedPlayer(playerID string) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return
	}
	for _, existing := range b.InvolvedPlayerIDs {
		if existing == playerID {
			return
		}
	}
	b.InvolvedPlayerIDs = append(b.InvolvedPlayerIDs, playerID)
}

// AddMetadata attaches a free-form key/value pair.
func (b *Beat) AddMetadata(key, value string) {
	if b.Metadata == nil {
		b.Metadata = map[string]string{}
	}
	b.Metadata[key] = value
}

// Publish marks the beat visible to end users. Publishing twice is an
// invalid-state fault.
func (b *Beat) Publish(now time.Time) error {
	if b.Status == BeatPublished {
		return apperrors.WithMetadata(apperrors.CodeBeatAlreadyPublished,
			"beat is already published", map[string]string{"beat_id": string(b.ID)})
	}
	publishedAt := now.UTC()
	b.Status = BeatPublished
	b.PublishedAt = &publishedAt
	return nil
}

// IsPublished reports whether the beat has been released.
func (b *Beat) IsPublished() bool {
	return b.Status == BeatPublished
}

// IsRoot reports whether the beat has no parents.
func (b *Beat) IsRoot() bool {
	return len(b.ParentBeatIDs) == 0
}

// IsLeaf reports whether the beat has no children.
func (b *Beat) IsLeaf() bool {
	return len(b.ChildBeatIDs) == 0
}

// IsPartOfArc reports whether an arc owns the beat.
func (b *Beat) IsPartOfArc() bool {
	return b.ArcID != ""
}

// InvolvesPlayer reports whether the player participates in the beat.
func (b *Beat) InvolvesPlayer(playerID string) bool {
	for _, existing := range b.InvolvedPlayerIDs {
		if existing == playerID {
			return true
		}
	}
	return false
}

func appendBeatID(ids []BeatID, id BeatID) []BeatID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeBeatID(ids []BeatID, id BeatID) []BeatID {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
