package ceremony

import (
	"context"

	"github.com/agoravoting/election-orchestra/internal/taskbus"
	"github.com/agoravoting/election-orchestra/internal/util"
)

// RegisterHandlers binds the ceremony actions to the bus. Result delivery
// back to the requesting authority is the transport's concern; the handlers
// only execute the steps.
func RegisterHandlers(bus *taskbus.LocalBus, svc *Service) {
	bus.Register(ActionGeneratePrivateInfo, func(ctx context.Context, task *taskbus.Task) error {
		var data SubmissionData
		if err := task.Bind(&data); err != nil {
			return err
		}

		return svc.HandleSubmission(ctx, &SubmissionRequest{
			SenderCert: task.SenderCert,
			Data:       &data,
		})
	})

	bus.Register(ActionGenerateLocalDescriptors, func(ctx context.Context, task *taskbus.Task) error {
		var req Phase1Request
		if err := task.Bind(&req); err != nil {
			return err
		}
		if req.ElectionID == "" {
			req.ElectionID = task.ElectionID
		}

		res, err := svc.GenerateLocalDescriptors(ctx, &req)
		if err != nil {
			return err
		}

		util.LogFromContext(ctx).Info().
			Str("election_id", req.ElectionID).
			Int("descriptors", len(res.Descriptors)).
			Msg("Local descriptors ready for delivery")

		return nil
	})

	bus.Register(ActionGeneratePublicKey, func(ctx context.Context, task *taskbus.Task) error {
		var req Phase2Request
		if err := task.Bind(&req); err != nil {
			return err
		}
		if req.ElectionID == "" {
			req.ElectionID = task.ElectionID
		}

		return svc.GeneratePublicKey(ctx, &req)
	})
}
