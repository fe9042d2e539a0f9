package availability

import (
	"context"
	"fmt"
)

// DeclineRegistry reads permanent examiner exclusions.
type DeclineRegistry struct {
	repo BookingRepository
}

func NewDeclineRegistry(repo BookingRepository) *DeclineRegistry {
	return &DeclineRegistry{repo: repo}
}

// DeclinedExaminerIDs returns the set of examiners who declined this
// claimant's booking for this examination.
func (r *DeclineRegistry) DeclinedExaminerIDs(ctx context.Context, examinationID, claimantID string) (map[string]struct{}, error) {
	records, err := r.repo.ListDeclines(ctx, examinationID, claimantID)
	if err != nil {
		return nil, fmt.Errorf("load declines: %w", err)
	}
	set := make(map[string]struct{}, len(records))
	for _, d := range records {
		if d.ExaminationID != examinationID || d.ClaimantID != claimantID {
			continue
		}
		set[d.ExaminerID] = struct{}{}
	}
	return set, nil
}
