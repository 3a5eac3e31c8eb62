package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	ApprovalKeyPrefix    = "approval:%d"
	EligibilityKeyPrefix = "eligibility:%s"
	DashboardStatsKey    = "dashboard:stats"
)

const (
	UserTTL        = 5 * time.Minute
	ApprovalTTL    = 2 * time.Minute
	EligibilityTTL = 30 * time.Second
	DashboardTTL   = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ApprovalKey(approvalID uint) string {
	return fmt.Sprintf(ApprovalKeyPrefix, approvalID)
}

func EligibilityKey(selectionHash string) string {
	return fmt.Sprintf(EligibilityKeyPrefix, selectionHash)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateApproval(ctx context.Context, approvalID uint) {
	Invalidate(ctx, ApprovalKey(approvalID))
	Invalidate(ctx, DashboardStatsKey)
}
