package model

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// BuildSnapshots dựng timeline của collaboration snapshots từ flat joined
// rows. Pure function: không mutation trên input, deterministic.
//
// Per parent theme, layers are ordered ascending by creation date (ties
// broken by layer id so equal timestamps still yield a stable order), and
// one snapshot is emitted per layer carrying the cumulative prefix up to
// that layer. The final list is ordered newest snapshot first.
func BuildSnapshots(rows []LayerRow) []Snapshot {
	// Group theo parent theme, giữ first-seen order của groups
	groups := make(map[uuid.UUID][]LayerRow)
	var order []uuid.UUID
	for _, row := range rows {
		if _, seen := groups[row.ParentID]; !seen {
			order = append(order, row.ParentID)
		}
		groups[row.ParentID] = append(groups[row.ParentID], row)
	}

	var snapshots []Snapshot
	for _, parentID := range order {
		group := groups[parentID]

		sort.SliceStable(group, func(i, j int) bool {
			if group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return strings.Compare(group[i].LayerID.String(), group[j].LayerID.String()) < 0
			}
			return group[i].CreatedAt.Before(group[j].CreatedAt)
		})

		for i := range group {
			snapshots = append(snapshots, buildSnapshot(group[:i+1]))
		}
	}

	// Most recently modified collaboration first
	sort.SliceStable(snapshots, func(i, j int) bool {
		if snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return strings.Compare(snapshots[i].ID.String(), snapshots[j].ID.String()) < 0
		}
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})

	return snapshots
}

// buildSnapshot constructs the snapshot for the last layer of prefix.
// prefix is never empty and all rows share one parent theme.
func buildSnapshot(prefix []LayerRow) Snapshot {
	head := prefix[len(prefix)-1]

	layers := make([]LayerInfo, 0, len(prefix))
	for _, row := range prefix {
		layers = append(layers, LayerInfo{
			ID:           row.LayerID,
			Title:        row.Title,
			Instrument:   row.Instrument,
			RecordingURL: row.RecordingURL,
			MixURL:       row.MixURL,
			MemberID:     row.MemberID,
			MemberName:   row.MemberName,
			CreatedAt:    row.CreatedAt,
		})
	}

	// Participants: original creator trước, rồi layer creators theo
	// first-seen order, dedup theo member id
	seen := map[uuid.UUID]bool{head.ParentMemberID: true}
	participants := []Participant{{
		ID:          head.ParentMemberID,
		DisplayName: head.ParentMemberName,
		AvatarURL:   head.ParentMemberAvatar,
	}}
	for _, row := range prefix {
		if seen[row.MemberID] {
			continue
		}
		seen[row.MemberID] = true
		participants = append(participants, Participant{
			ID:          row.MemberID,
			DisplayName: row.MemberName,
			AvatarURL:   row.MemberAvatar,
		})
	}

	return Snapshot{
		ID:           head.LayerID,
		ThemeID:      head.ParentID,
		ThemeTitle:   head.ParentTitle,
		Genre:        head.ParentGenre,
		Title:        head.Title,
		Instrument:   head.Instrument,
		RecordingURL: head.RecordingURL,
		MixURL:       head.MixURL,
		CreatedAt:    head.CreatedAt,
		Creator: Participant{
			ID:          head.MemberID,
			DisplayName: head.MemberName,
			AvatarURL:   head.MemberAvatar,
		},
		Layers:       layers,
		Participants: participants,
	}
}
