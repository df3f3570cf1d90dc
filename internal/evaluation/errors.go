package evaluation

import "errors"

var (
	// ErrAuth means the credentials were rejected. Unknown user and bad
	// password are deliberately indistinguishable.
	ErrAuth = errors.New("invalid credentials")
	// ErrAccessDenied means the user lacks permission for the evaluation type.
	ErrAccessDenied = errors.New("access denied")
	// ErrExamBlocked means the global exam lock is set for the user.
	ErrExamBlocked = errors.New("exams blocked")
	// ErrNetwork wraps any failed call to the evaluation API.
	ErrNetwork  = errors.New("network error")
	ErrNotFound = errors.New("not found")
)

// UserMessage maps an error to the localized text shown to the user.
// Transport details are never surfaced.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuth):
		return "Usuario o contraseña incorrectos."
	case errors.Is(err, ErrExamBlocked):
		return "Tus exámenes están bloqueados. Contacta al administrador."
	case errors.Is(err, ErrAccessDenied):
		return "No tienes permiso para realizar esta evaluación."
	case errors.Is(err, ErrNotFound):
		return "La evaluación solicitada no existe."
	case errors.Is(err, ErrNetwork):
		return "Error de conexión. Inténtalo de nuevo."
	default:
		return "Ocurrió un error inesperado."
	}
}
