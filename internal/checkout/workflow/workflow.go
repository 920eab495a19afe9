// Package workflow is the two-step checkout a shopper walks through before an
// order is placed: shipping details first, then payment proof.
package workflow

import (
	"sync"

	"github.com/moaz267/furniture/internal/domain"
	apperrors "github.com/moaz267/furniture/internal/errors"
)

type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
)

// ErrEmptyCart is returned when a shopper tries to check out with nothing in
// the cart.
var ErrEmptyCart = apperrors.NewValidationError("cart is empty", apperrors.ValidationDetail{
	Field:   "cart",
	Message: "add items to your cart before checking out",
})

type Cart interface {
	IsEmpty() bool
}

type FormValidator interface {
	Struct(s any) error
}

type Options struct {
	Methods            []domain.PaymentMethod
	MaxScreenshotBytes int64
	Validator          FormValidator
}

// Workflow moves forward from shipping to payment only after the form
// validates and can step back from payment to shipping. It has no final
// state: a confirmed checkout is discarded by its owner.
type Workflow struct {
	mu         sync.Mutex
	opts       Options
	step       Step
	form       *ShippingForm
	method     domain.PaymentMethod
	screenshot *Attachment

	submitMu sync.Mutex
}

// Submission is everything needed to place the order.
type Submission struct {
	Form       ShippingForm
	Method     domain.PaymentMethod
	Screenshot Attachment
}

// State is a read-only view of the workflow.
type State struct {
	Step       Step
	Form       *ShippingForm
	Method     domain.PaymentMethod
	Screenshot *Attachment
}

func Begin(cart Cart, opts Options) (*Workflow, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	return &Workflow{opts: opts, step: StepShipping}, nil
}

func (w *Workflow) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := State{Step: w.step, Method: w.method}
	if w.form != nil {
		f := *w.form
		st.Form = &f
	}
	if w.screenshot != nil {
		a := *w.screenshot
		a.Data = nil
		st.Screenshot = &a
	}
	return st
}

// SubmitShipping validates the whole form. On success the workflow moves to
// the payment step; otherwise it stays on shipping and the error carries the
// first violation of each field.
func (w *Workflow) SubmitShipping(form ShippingForm) error {
	form = form.Normalize()
	if err := w.opts.Validator.Struct(form); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.form = &form
	w.step = StepPayment
	if w.method == "" && len(w.opts.Methods) > 0 {
		w.method = w.opts.Methods[0]
	}
	return nil
}

// Back returns from payment to shipping, keeping the entered form. It is a
// no-op on the shipping step.
func (w *Workflow) Back() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.step = StepShipping
}

func (w *Workflow) SelectPaymentMethod(method domain.PaymentMethod) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepPayment {
		return apperrors.NewConflictError("complete shipping details first")
	}
	for _, m := range w.opts.Methods {
		if m == method {
			w.method = method
			return nil
		}
	}
	return apperrors.NewValidationError("unsupported payment method", apperrors.ValidationDetail{
		Field:   "paymentMethod",
		Message: "choose one of the offered payment methods",
	})
}

// AttachScreenshot replaces the payment proof. An invalid file leaves any
// previously attached screenshot in place.
func (w *Workflow) AttachScreenshot(a Attachment) error {
	if err := ValidateScreenshot(a, w.opts.MaxScreenshotBytes); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepPayment {
		return apperrors.NewConflictError("complete shipping details first")
	}
	w.screenshot = &a
	return nil
}

func (w *Workflow) RemoveScreenshot() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.screenshot = nil
}

// TrySubmit returns the submission if the payment step is complete and no
// other submission of this workflow is in flight. The caller must call
// release once the attempt is over, whatever its outcome.
func (w *Workflow) TrySubmit() (Submission, func(), error) {
	if !w.submitMu.TryLock() {
		return Submission{}, nil, apperrors.NewConflictError("order submission already in progress")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.step != StepPayment || w.form == nil {
		w.submitMu.Unlock()
		return Submission{}, nil, apperrors.NewConflictError("complete shipping details first")
	}
	if w.screenshot == nil {
		w.submitMu.Unlock()
		return Submission{}, nil, screenshotError("payment screenshot is required")
	}
	if w.method == "" {
		w.submitMu.Unlock()
		return Submission{}, nil, apperrors.NewValidationError("payment method is required", apperrors.ValidationDetail{
			Field:   "paymentMethod",
			Message: "choose a payment method",
		})
	}

	return Submission{
		Form:       *w.form,
		Method:     w.method,
		Screenshot: *w.screenshot,
	}, w.submitMu.Unlock, nil
}
