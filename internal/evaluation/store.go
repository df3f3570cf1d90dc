package evaluation

import "context"

// NewUser is the input for creating an account.
type NewUser struct {
	ID        string
	Username  string
	Password  string
	FullName  string
	Role      string
	CompanyID string
}

// Store is the server-side persistence behind the evaluation API.
type Store interface {
	Authenticate(ctx context.Context, username, password string) (User, error)
	CreateCompany(ctx context.Context, id, name string) error
	CreateUser(ctx context.Context, u NewUser) (User, error)
	UserRole(ctx context.Context, userID string) (string, error)

	BlockStatus(ctx context.Context, userID string) (BlockStatus, error)
	SetBlock(ctx context.Context, userID, reason, blockedBy string) error
	ClearBlock(ctx context.Context, userID string) error

	HasPermission(ctx context.Context, userID string, t Type) (bool, error)
	SetPermission(ctx context.Context, userID string, t Type, allowed bool) error

	Template(ctx context.Context, t Type) (Evaluation, error)
	PutTemplate(ctx context.Context, e Evaluation) error

	SaveResult(ctx context.Context, userID string, r Result) (string, error)
	ListResults(ctx context.Context, opts ResultListOpts) ([]StoredResult, error)
	CompanyStats(ctx context.Context) ([]CompanyStats, error)
}

type ResultListOpts struct {
	UserID string
	Type   Type
	Limit  int
	Offset int
}

// StoredResult is a persisted attempt as listed by the visualization app.
type StoredResult struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
	Result
}
