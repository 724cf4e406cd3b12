package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type rowSpec struct {
	parent    uuid.UUID
	member    uuid.UUID
	name      string
	title     string
	createdAt time.Time
}

func makeRow(spec rowSpec) LayerRow {
	return LayerRow{
		LayerID:      uuid.New(),
		Title:        spec.title,
		Instrument:   strPtr("guitar"),
		RecordingURL: "http://storage/" + spec.title + ".mp3",
		CreatedAt:    spec.createdAt,

		MemberID:   spec.member,
		MemberName: spec.name,

		ParentID:           spec.parent,
		ParentTitle:        "Root Theme",
		ParentRecordingURL: "http://storage/root.mp3",
		ParentCreatedAt:    spec.createdAt.Add(-time.Hour),

		ParentMemberID:   uuid.NewSHA1(uuid.NameSpaceOID, spec.parent[:]),
		ParentMemberName: "original-creator",
	}
}

func TestBuildSnapshots_Empty(t *testing.T) {
	assert.Empty(t, BuildSnapshots(nil))
	assert.Empty(t, BuildSnapshots([]LayerRow{}))
}

func TestBuildSnapshots_OneSnapshotPerLayer(t *testing.T) {
	parent := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []LayerRow{
		makeRow(rowSpec{parent: parent, member: uuid.New(), name: "alice", title: "first", createdAt: base}),
		makeRow(rowSpec{parent: parent, member: uuid.New(), name: "bob", title: "second", createdAt: base.Add(time.Minute)}),
		makeRow(rowSpec{parent: parent, member: uuid.New(), name: "carol", title: "third", createdAt: base.Add(2 * time.Minute)}),
	}

	snapshots := BuildSnapshots(rows)
	require.Len(t, snapshots, 3)

	// Newest snapshot first; cumulative layer counts shrink going back
	assert.Equal(t, "third", snapshots[0].Title)
	assert.Len(t, snapshots[0].Layers, 3)
	assert.Equal(t, "second", snapshots[1].Title)
	assert.Len(t, snapshots[1].Layers, 2)
	assert.Equal(t, "first", snapshots[2].Title)
	assert.Len(t, snapshots[2].Layers, 1)

	// Mỗi prefix giữ chronological order bên trong
	assert.Equal(t, "first", snapshots[0].Layers[0].Title)
	assert.Equal(t, "second", snapshots[0].Layers[1].Title)
	assert.Equal(t, "third", snapshots[0].Layers[2].Title)
}

func TestBuildSnapshots_IdentityComesFromLatestLayer(t *testing.T) {
	parent := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := makeRow(rowSpec{parent: parent, member: uuid.New(), name: "alice", title: "first", createdAt: base})
	second := makeRow(rowSpec{parent: parent, member: uuid.New(), name: "bob", title: "second", createdAt: base.Add(time.Minute)})

	snapshots := BuildSnapshots([]LayerRow{first, second})
	require.Len(t, snapshots, 2)

	latest := snapshots[0]
	assert.Equal(t, second.LayerID, latest.ID)
	assert.Equal(t, second.RecordingURL, latest.RecordingURL)
	assert.Equal(t, second.CreatedAt, latest.CreatedAt)
	assert.Equal(t, "bob", latest.Creator.DisplayName)
	assert.Equal(t, parent, latest.ThemeID)
}

func TestBuildSnapshots_ParticipantsDeduplicatedFirstSeen(t *testing.T) {
	parent := uuid.New()
	repeat := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []LayerRow{
		makeRow(rowSpec{parent: parent, member: repeat, name: "alice", title: "first", createdAt: base}),
		makeRow(rowSpec{parent: parent, member: uuid.New(), name: "bob", title: "second", createdAt: base.Add(time.Minute)}),
		makeRow(rowSpec{parent: parent, member: repeat, name: "alice", title: "third", createdAt: base.Add(2 * time.Minute)}),
	}

	snapshots := BuildSnapshots(rows)
	require.Len(t, snapshots, 3)

	// Full snapshot: original creator + alice + bob, alice không lặp lại
	full := snapshots[0]
	require.Len(t, full.Participants, 3)
	assert.Equal(t, "original-creator", full.Participants[0].DisplayName)
	assert.Equal(t, "alice", full.Participants[1].DisplayName)
	assert.Equal(t, "bob", full.Participants[2].DisplayName)

	// First snapshot chỉ có original creator và alice
	require.Len(t, snapshots[2].Participants, 2)
}

func TestBuildSnapshots_GroupsAreIndependent(t *testing.T) {
	parentA := uuid.New()
	parentB := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []LayerRow{
		makeRow(rowSpec{parent: parentA, member: uuid.New(), name: "alice", title: "a1", createdAt: base}),
		makeRow(rowSpec{parent: parentB, member: uuid.New(), name: "bob", title: "b1", createdAt: base.Add(time.Minute)}),
		makeRow(rowSpec{parent: parentA, member: uuid.New(), name: "carol", title: "a2", createdAt: base.Add(2 * time.Minute)}),
	}

	snapshots := BuildSnapshots(rows)
	require.Len(t, snapshots, 3)

	// a2's prefix chỉ chứa layers của collaboration A
	var a2 *Snapshot
	for i := range snapshots {
		if snapshots[i].Title == "a2" {
			a2 = &snapshots[i]
		}
	}
	require.NotNil(t, a2)
	require.Len(t, a2.Layers, 2)
	assert.Equal(t, "a1", a2.Layers[0].Title)
	assert.Equal(t, "a2", a2.Layers[1].Title)
}

func TestBuildSnapshots_FinalOrderIsNewestFirst(t *testing.T) {
	parentA := uuid.New()
	parentB := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []LayerRow{
		makeRow(rowSpec{parent: parentA, member: uuid.New(), name: "alice", title: "a1", createdAt: base}),
		makeRow(rowSpec{parent: parentB, member: uuid.New(), name: "bob", title: "b1", createdAt: base.Add(3 * time.Minute)}),
		makeRow(rowSpec{parent: parentA, member: uuid.New(), name: "carol", title: "a2", createdAt: base.Add(5 * time.Minute)}),
	}

	snapshots := BuildSnapshots(rows)
	require.Len(t, snapshots, 3)

	assert.Equal(t, "a2", snapshots[0].Title)
	assert.Equal(t, "b1", snapshots[1].Title)
	assert.Equal(t, "a1", snapshots[2].Title)
}

func TestBuildSnapshots_EqualTimestampsAreDeterministic(t *testing.T) {
	parent := uuid.New()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	r1 := makeRow(rowSpec{parent: parent, member: uuid.New(), name: "alice", title: "same-time-1", createdAt: at})
	r2 := makeRow(rowSpec{parent: parent, member: uuid.New(), name: "bob", title: "same-time-2", createdAt: at})

	forward := BuildSnapshots([]LayerRow{r1, r2})
	reversed := BuildSnapshots([]LayerRow{r2, r1})

	require.Len(t, forward, 2)
	require.Len(t, reversed, 2)

	// Ties break theo layer id, nên input order không ảnh hưởng output
	assert.Equal(t, forward[0].ID, reversed[0].ID)
	assert.Equal(t, forward[1].ID, reversed[1].ID)
	assert.Equal(t, forward[0].Layers[0].ID, reversed[0].Layers[0].ID)
}

func TestBuildSnapshots_DoesNotMutateInput(t *testing.T) {
	parent := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []LayerRow{
		makeRow(rowSpec{parent: parent, member: uuid.New(), name: "bob", title: "second", createdAt: base.Add(time.Minute)}),
		makeRow(rowSpec{parent: parent, member: uuid.New(), name: "alice", title: "first", createdAt: base}),
	}
	firstID := rows[0].LayerID

	BuildSnapshots(rows)

	assert.Equal(t, firstID, rows[0].LayerID)
	assert.Equal(t, "second", rows[0].Title)
}
