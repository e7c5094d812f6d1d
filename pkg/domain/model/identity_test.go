package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/docrev/pkg/domain/model"
	"github.com/secmon-lab/docrev/pkg/domain/types"
)

func TestResolveIdentity(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	t.Run("supplied resource ID wins over derivation", func(t *testing.T) {
		id := model.ResolveIdentity("resource-2024-04-30-23", "", model.HourBucketPolicy, now)

		gt.Value(t, id.ResourceID.String()).Equal("resource-2024-04-30-23")
		gt.Bool(t, id.HasThread()).False()
	})

	t.Run("missing resource ID is derived from the clock", func(t *testing.T) {
		id := model.ResolveIdentity("", "", model.HourBucketPolicy, now)

		gt.Value(t, id.ResourceID.String()).Equal("resource-2024-05-01-09")
	})

	t.Run("thread ID passes through untouched", func(t *testing.T) {
		threadID := types.NewThreadID()
		id := model.ResolveIdentity("", threadID, model.HourBucketPolicy, now)

		gt.Bool(t, id.HasThread()).True()
		gt.Value(t, id.ThreadID).Equal(threadID)
	})

	t.Run("nil policy falls back to hour bucket", func(t *testing.T) {
		id := model.ResolveIdentity("", "", nil, now)

		gt.Value(t, id.ResourceID.String()).Equal("resource-2024-05-01-09")
	})

	t.Run("custom policy is used", func(t *testing.T) {
		policy := func(time.Time) types.ResourceID { return "resource-fixed" }
		id := model.ResolveIdentity("", "", policy, now)

		gt.Value(t, id.ResourceID.String()).Equal("resource-fixed")
	})
}
