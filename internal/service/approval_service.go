package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/edu-monitoring/api/internal/models"
	appErrors "github.com/edu-monitoring/api/pkg/errors"
)

type bulkApprover interface {
	BulkApprove(ctx context.Context, materialIDs, videoIDs []string) (*models.BulkApprovalResult, error)
	BulkReject(ctx context.Context, materialIDs, videoIDs []string) (*models.BulkRejectionResult, error)
}

type materialLister interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
}

type videoLister interface {
	List(ctx context.Context, filter models.VideoFilter) ([]models.Video, int, error)
}

// ApprovalService drives the admin moderation queue: listing pending
// submissions and approving batches of them atomically.
type ApprovalService struct {
	approver  bulkApprover
	materials materialLister
	videos    videoLister
	audit     auditWriter
	logger    *zap.Logger
}

// NewApprovalService constructs ApprovalService.
func NewApprovalService(approver bulkApprover, materials materialLister, videos videoLister, audit auditWriter, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{approver: approver, materials: materials, videos: videos, audit: audit, logger: logger}
}

// PendingQueue lists unapproved materials and videos, optionally scoped to
// one admin's school via the filter's DirectorUserID.
func (s *ApprovalService) PendingQueue(ctx context.Context, directorUserID string, page, pageSize int) ([]models.Material, []models.Video, error) {
	pending := false
	mFilter := models.MaterialFilter{IsApproved: &pending, DirectorUserID: directorUserID, Page: page, PageSize: pageSize}
	vFilter := models.VideoFilter{IsApproved: &pending, DirectorUserID: directorUserID, Page: page, PageSize: pageSize}

	materials, _, err := s.materials.List(ctx, mFilter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending materials")
	}
	videos, _, err := s.videos.List(ctx, vFilter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending videos")
	}
	return materials, videos, nil
}

// BulkApprove approves every still-pending submission in the request in a
// single transaction. Unknown or already-approved IDs are skipped silently;
// the result reports exactly what changed.
func (s *ApprovalService) BulkApprove(ctx context.Context, actorUserID string, req models.BulkApprovalRequest) (*models.BulkApprovalResult, error) {
	if len(req.MaterialIDs) == 0 && len(req.VideoIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to approve")
	}
	result, err := s.approver.BulkApprove(ctx, req.MaterialIDs, req.VideoIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "bulk approval failed")
	}
	s.logger.Info("bulk approval completed",
		zap.String("actor", actorUserID),
		zap.Int("approved", result.ApprovedCount()),
		zap.Int("points", result.TotalPoints()))

	if s.audit != nil {
		payload, _ := json.Marshal(result)
		actor := actorUserID
		entry := &models.AuditLog{
			UserID:    &actor,
			Action:    models.AuditActionBulkApproval,
			Resource:  "approvals",
			NewValues: payload,
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.Error(err))
		}
	}
	return result, nil
}

// BulkReject hard-deletes every listed submission in a single transaction.
// No reason is stored; the rows are simply gone.
func (s *ApprovalService) BulkReject(ctx context.Context, actorUserID string, req models.BulkApprovalRequest) (*models.BulkRejectionResult, error) {
	if len(req.MaterialIDs) == 0 && len(req.VideoIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to reject")
	}
	result, err := s.approver.BulkReject(ctx, req.MaterialIDs, req.VideoIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "bulk rejection failed")
	}
	s.logger.Info("bulk rejection completed",
		zap.String("actor", actorUserID),
		zap.Int("materials_deleted", result.MaterialsDeleted),
		zap.Int("videos_deleted", result.VideosDeleted))

	if s.audit != nil {
		payload, _ := json.Marshal(result)
		actor := actorUserID
		entry := &models.AuditLog{
			UserID:    &actor,
			Action:    models.AuditActionBulkRejection,
			Resource:  "approvals",
			NewValues: payload,
		}
		if err := s.audit.Create(ctx, entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.Error(err))
		}
	}
	return result, nil
}
