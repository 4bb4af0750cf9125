package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/k-negishi/abi-shift-sync/internal/domain"
	"github.com/k-negishi/abi-shift-sync/internal/shift"
)

// ExportShiftsUseCase カレンダーに触れずにシフトを取得・確定するユースケース
type ExportShiftsUseCase struct {
	openPortal PortalOpener
}

// NewExportShiftsUseCase ユースケースを生成
func NewExportShiftsUseCase(openPortal PortalOpener) *ExportShiftsUseCase {
	return &ExportShiftsUseCase{openPortal: openPortal}
}

// Execute ポータルからシフトを取得し、開始・終了時刻を確定して返す
func (uc *ExportShiftsUseCase) Execute(ctx context.Context, req domain.SyncRequest) ([]domain.ResolvedShift, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	logger := slog.With("export_id", uuid.NewString(), "venue_id", req.VenueID)

	sc, raws, err := scrapeSchedule(ctx, logger, uc.openPortal, req, nil)
	if err != nil {
		return nil, err
	}

	resolved := make([]domain.ResolvedShift, 0, len(raws))
	for _, raw := range raws {
		s, err := shift.Resolve(sc, raw)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, s)
	}

	logger.InfoContext(ctx, "シフトを確定しました", "shifts", len(resolved))
	return resolved, nil
}
