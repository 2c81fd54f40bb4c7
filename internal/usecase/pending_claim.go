package usecase

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"court-booking/internal/dto/request"
	"court-booking/internal/dto/response"
	"court-booking/pkg/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PendingClaim is a claim someone is about to submit. Done is closed when the
// claim can no longer succeed; Err then tells why.
type PendingClaim struct {
	ctx         context.Context
	cancel      context.CancelCauseFunc
	unsubscribe func()
	closeOnce   sync.Once

	svc        *slotService
	bookingID  uuid.UUID
	slot       int
	submitting atomic.Pointer[string]
	log        *zap.Logger
}

func (p *PendingClaim) BookingID() string { return p.bookingID.String() }

func (p *PendingClaim) Slot() int { return p.slot }

func (p *PendingClaim) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Err is nil while the claim is open. After cancellation it matches
// ErrSlotAlreadyTaken, ErrBookingDeleted, ErrBookingNotFound or ErrClaimClosed.
func (p *PendingClaim) Err() error {
	if p.ctx.Err() == nil {
		return nil
	}
	return context.Cause(p.ctx)
}

// Submit runs the claim. An in-flight write is abandoned if the claim gets
// cancelled meanwhile. The claim is closed afterwards either way.
func (p *PendingClaim) Submit(ctx context.Context, name string) (*response.BookingResponse, error) {
	defer p.Close()

	if err := p.Err(); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	p.submitting.Store(&name)

	submitCtx, cancelSubmit := context.WithCancelCause(ctx)
	defer cancelSubmit(nil)
	stop := context.AfterFunc(p.ctx, func() {
		cancelSubmit(context.Cause(p.ctx))
	})
	defer stop()

	resp, err := p.svc.ClaimSlot(submitCtx, p.bookingID.String(), p.slot, &request.ClaimSlotRequest{Name: name})
	if err != nil {
		if submitCtx.Err() != nil && ctx.Err() == nil {
			return nil, context.Cause(submitCtx)
		}
		return nil, err
	}
	return resp, nil
}

func (p *PendingClaim) Close() {
	p.closeOnce.Do(func() {
		p.cancel(ErrClaimClosed)
		p.unsubscribe()
	})
}

func (p *PendingClaim) watch(changes <-chan notify.Change) {
	target := p.bookingID.String()

	for {
		select {
		case <-p.ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				p.cancel(ErrClaimClosed)
				return
			}
			// An empty id means "something changed", so recheck.
			if change.BookingID != "" && change.BookingID != target {
				continue
			}
			if err := p.recheck(); err != nil {
				p.log.Info("Pending claim cancelled", zap.Error(err))
				p.cancel(err)
				return
			}
		}
	}
}

// recheck returns the reason the claim can no longer succeed, or nil.
func (p *PendingClaim) recheck() error {
	booking, err := p.svc.repo.Booking.FindByID(p.ctx, p.bookingID)
	if err != nil {
		if p.ctx.Err() == nil {
			p.log.Warn("Failed to recheck pending claim", zap.Error(err))
		}
		return nil
	}

	if booking == nil || booking.IsDeleted() {
		return classify(booking, p.slot)
	}

	holder := booking.Slot(p.slot)
	if holder == nil {
		return nil
	}
	if own := p.submitting.Load(); own != nil && *own == *holder {
		return nil
	}
	return newSlotTakenError(booking, p.slot)
}
