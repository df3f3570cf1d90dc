package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
)

// Reason explains a gate decision.
type Reason string

const (
	ReasonOK           Reason = "ok"
	ReasonExamBlocked  Reason = "exam_blocked"
	ReasonNoPermission Reason = "no_permission"
)

type Decision struct {
	Allowed bool
	Reason  Reason
	Block   *evaluation.BlockStatus // set when Reason is ReasonExamBlocked
}

// Err converts a denial into the matching sentinel.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonExamBlocked:
		return evaluation.ErrExamBlocked
	case ReasonNoPermission:
		return evaluation.ErrAccessDenied
	}
	return nil
}

type BlockChecker interface {
	BlockStatus(ctx context.Context, userID string) (evaluation.BlockStatus, error)
}

type PermissionChecker interface {
	HasPermission(ctx context.Context, userID string, t evaluation.Type) (bool, error)
}

// Gate decides whether a user may start an evaluation. The global block is
// always checked first; a blocked user never reaches the permission check.
type Gate struct {
	Blocks      BlockChecker
	Permissions PermissionChecker
	Roles       *rbac.Checker
	Logger      *slog.Logger

	// FailOpenOnBlockError logs a failed block check and carries on to the
	// permission check instead of denying.
	FailOpenOnBlockError bool
}

func (g *Gate) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Gate) roles() *rbac.Checker {
	if g.Roles != nil {
		return g.Roles
	}
	return rbac.NewChecker(nil)
}

func (g *Gate) CheckAccess(ctx context.Context, user evaluation.User, t evaluation.Type) (Decision, error) {
	if g.Blocks == nil || g.Permissions == nil {
		return Decision{}, errors.New("access gate not configured")
	}
	bs, err := g.Blocks.BlockStatus(ctx, user.ID)
	switch {
	case err != nil && !g.FailOpenOnBlockError:
		return Decision{}, fmt.Errorf("block check: %w", wrapNetwork(err))
	case err != nil:
		g.logger().Warn("block check failed, continuing", "user_id", user.ID, "error", err)
	case bs.Blocked():
		return Decision{Reason: ReasonExamBlocked, Block: &bs}, nil
	}

	if g.roles().Has(user.Role, rbac.PermBypassTypeCheck) {
		return Decision{Allowed: true, Reason: ReasonOK}, nil
	}

	ok, err := g.Permissions.HasPermission(ctx, user.ID, t)
	if err != nil {
		g.logger().Warn("permission check failed, denying", "user_id", user.ID, "type", t, "error", err)
		return Decision{Reason: ReasonNoPermission}, fmt.Errorf("permission check: %w", wrapNetwork(err))
	}
	if !ok {
		return Decision{Reason: ReasonNoPermission}, nil
	}
	return Decision{Allowed: true, Reason: ReasonOK}, nil
}

func wrapNetwork(err error) error {
	if errors.Is(err, evaluation.ErrNetwork) {
		return err
	}
	return fmt.Errorf("%w: %v", evaluation.ErrNetwork, err)
}
