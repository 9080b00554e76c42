package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/user-api/internal/auth"
	"github.com/deppfellow/user-api/internal/errs"
	"github.com/deppfellow/user-api/internal/sqlerr"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// HealthCheckPath always answers 200 without touching storage.
const HealthCheckPath = "/health-check"

// Connection is the shared storage connection. Ensure connects on first use
// and is a no-op afterwards.
type Connection interface {
	Ensure(ctx context.Context) error
}

// Dispatcher routes requests to operations.
type Dispatcher struct {
	router        *Router
	authenticator *auth.Authenticator
	conn          Connection
	logger        *zerolog.Logger
}

type Option func(*Dispatcher)

// WithAuthenticator sets the authenticator used for secured operations.
// Without one every secured operation fails with a 401.
func WithAuthenticator(a *auth.Authenticator) Option {
	return func(d *Dispatcher) { d.authenticator = a }
}

// WithConnection sets the storage connection ensured before each handler.
func WithConnection(c Connection) Option {
	return func(d *Dispatcher) { d.conn = c }
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func New(ops []*Operation, opts ...Option) *Dispatcher {
	nop := zerolog.Nop()
	d := &Dispatcher{
		router: NewRouter(ops...),
		logger: &nop,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Router exposes the operation table.
func (d *Dispatcher) Router() *Router {
	return d.router
}

// exchange carries per-request state needed for the log entry.
type exchange struct {
	req      *Request
	op       *Operation
	input    NormalizedRequest
	identity *auth.Identity
}

// Dispatch runs req through the pipeline. It never returns an error: every
// failure is classified into an error envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) Result {
	start := time.Now()
	logger := d.logger.With().Str("request_id", req.RequestID).Logger()
	ex := &exchange{req: req}

	body, err := d.execute(ctx, ex, &logger)

	var res Result
	if err != nil {
		appErr := classify(err)
		res = Result{StatusCode: appErr.StatusCode(), Body: appErr.Envelope()}
		noticeError(ctx, err)
	} else {
		res = Result{StatusCode: http.StatusOK, Body: body}
	}

	annotate(ctx, ex, res)
	d.observe(&logger, ex, res, err, time.Since(start))
	return res
}

func annotate(ctx context.Context, ex *exchange, res Result) {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return
	}
	if ex.op != nil {
		txn.AddAttribute("operation.id", ex.op.ID)
	}
	if ex.identity != nil {
		txn.AddAttribute("user.id", ex.identity.Subject)
	}
	txn.AddAttribute("handler.status_code", res.StatusCode)
}

func (d *Dispatcher) execute(ctx context.Context, ex *exchange, logger *zerolog.Logger) (body any, err error) {
	defer func() {
		if r := recover(); r != nil {
			body = nil
			err = errors.Errorf("panic: %v", r)
		}
	}()

	req := ex.req

	if req.Path == HealthCheckPath || req.Method == http.MethodOptions {
		if req.Method == http.MethodOptions {
			return nil, nil
		}
		return map[string]string{"status": "ok"}, nil
	}

	op, params, ok := d.router.Match(req.Method, req.Path)
	if !ok {
		return nil, errs.NewNotFoundError(fmt.Sprintf("No operation matches %s %s", req.Method, req.Path))
	}
	ex.op = op

	rawBody, err := decodeBody(req.Body)
	if err != nil {
		return nil, err
	}
	ex.input = Normalize(req.Query, req.MultiQuery, params, rawBody)

	typed, err := op.bind(ex.input)
	if err != nil {
		return nil, err
	}

	if op.Secured() {
		if ex.identity, err = d.authenticate(ctx, req, op); err != nil {
			return nil, err
		}
	}

	if d.conn != nil {
		if err := d.conn.Ensure(ctx); err != nil {
			return nil, errors.Wrap(err, "connecting to storage")
		}
	}

	return op.invoke(ctx, typed, ex.identity, logger)
}

func (d *Dispatcher) authenticate(ctx context.Context, req *Request, op *Operation) (*auth.Identity, error) {
	if d.authenticator == nil {
		return nil, errs.NewAuthInternalError(0, "Authentication is not configured", nil)
	}

	identity, err := d.authenticator.Authenticate(ctx, auth.BearerToken(req.Header.Get("Authorization")))
	if err != nil {
		return nil, err
	}

	if !auth.UserCanAccess(identity, op.Scopes) {
		return nil, errs.NewForbiddenError("Insufficient access")
	}
	return identity, nil
}

func classify(err error) *errs.Error {
	return errs.Classify(sqlerr.HandleError(err))
}

func noticeError(ctx context.Context, err error) {
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.NoticeError(nrpkgerrors.Wrap(err))
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodDelete, http.MethodPost, http.MethodPatch:
		return true
	}
	return false
}

// observe writes the single log entry for a request. Failures are always
// logged; successes only for mutating methods.
func (d *Dispatcher) observe(logger *zerolog.Logger, ex *exchange, res Result, err error, elapsed time.Duration) {
	var event *zerolog.Event
	switch {
	case err != nil:
		event = logger.Error().Stack().Err(err)
	case isMutating(ex.req.Method):
		event = logger.Info()
	default:
		return
	}

	actor := ""
	if ex.identity != nil {
		actor = ex.identity.Subject
	}

	if ex.op != nil {
		event = event.Str("operation", ex.op.ID)
	}

	event.
		Str("path", ex.req.Method+" "+ex.req.Path).
		Int("statusCode", res.StatusCode).
		Interface("req", ex.input).
		Interface("res", res.Body).
		Str("actor", actor).
		Str("requestId", ex.req.RequestID).
		Dur("latency", elapsed).
		Msg("processed request")
}
