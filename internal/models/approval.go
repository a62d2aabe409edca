package models

// BulkAction selects what a bulk moderation run does with the listed IDs.
type BulkAction string

// Bulk moderation actions.
const (
	BulkActionApprove BulkAction = "approve"
	BulkActionReject  BulkAction = "reject"
)

// Valid reports whether the action is a known bulk action.
func (a BulkAction) Valid() bool {
	return a == BulkActionApprove || a == BulkActionReject
}

// BulkApprovalRequest names the pending submissions an admin wants to moderate
// in one shot. An empty action means approve. For approvals, IDs that do not
// match a pending row are skipped silently.
type BulkApprovalRequest struct {
	MaterialIDs []string   `json:"material_ids"`
	VideoIDs    []string   `json:"video_ids"`
	Action      BulkAction `json:"action"`
}

// ApprovedItem identifies one submission approved during a bulk run.
type ApprovedItem struct {
	ID        string `db:"id" json:"id"`
	TeacherID string `db:"teacher_id" json:"teacher_id"`
	Title     string `db:"title" json:"title"`
}

// BulkApprovalResult reports what a bulk approval actually changed.
type BulkApprovalResult struct {
	Materials     []ApprovedItem `json:"materials"`
	Videos        []ApprovedItem `json:"videos"`
	PointsAwarded map[string]int `json:"points_awarded"`
}

// ApprovedCount is the total number of submissions approved.
func (r *BulkApprovalResult) ApprovedCount() int {
	return len(r.Materials) + len(r.Videos)
}

// TotalPoints is the sum of all points credited by the run.
func (r *BulkApprovalResult) TotalPoints() int {
	var total int
	for _, p := range r.PointsAwarded {
		total += p
	}
	return total
}

// BulkRejectionResult reports how many submissions a bulk rejection removed.
type BulkRejectionResult struct {
	MaterialsDeleted int `json:"materials_deleted"`
	VideosDeleted    int `json:"videos_deleted"`
}
