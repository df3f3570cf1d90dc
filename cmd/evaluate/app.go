package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/navigator"
	"github.com/mind-engage/plant-eval/internal/results"
)

var typeLabels = map[evaluation.Type]string{
	evaluation.TypePersonal:   "Evaluación de personal",
	evaluation.TypeEquipo:     "Evaluación de equipo",
	evaluation.TypeOperacion:  "Evaluación de operación",
	evaluation.TypeJefePlanta: "Evaluación de jefe de planta",
}

// app is the terminal front end. Each loop iteration renders the current
// screen and feeds one line of input back into the navigator.
type app struct {
	nav      *navigator.Navigator
	exporter *results.Exporter
	in       *bufio.Scanner
	out      io.Writer
	saveErr  error
}

func newApp(nav *navigator.Navigator, exporter *results.Exporter, in io.Reader, out io.Writer) *app {
	return &app{nav: nav, exporter: exporter, in: bufio.NewScanner(in), out: out}
}

func (a *app) printf(format string, args ...any) { fmt.Fprintf(a.out, format, args...) }

func (a *app) prompt(label string) (string, bool) {
	a.printf("%s", label)
	if !a.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(a.in.Text()), true
}

func (a *app) fail(err error) { a.printf("! %s\n", evaluation.UserMessage(err)) }

// run returns when input is exhausted or the user quits.
func (a *app) run(ctx context.Context) error {
	for {
		var ok bool
		switch a.nav.Screen() {
		case navigator.ScreenLogin:
			ok = a.login(ctx)
		case navigator.ScreenMenu:
			ok = a.menu(ctx)
		case navigator.ScreenBlocked:
			ok = a.blocked()
		case navigator.ScreenEvaluation:
			ok = a.question(ctx)
		case navigator.ScreenSectionModal:
			ok = a.modal()
		case navigator.ScreenResults:
			ok = a.results(ctx)
		}
		if !ok {
			return ctx.Err()
		}
	}
}

func (a *app) login(ctx context.Context) bool {
	user, ok := a.prompt("Usuario: ")
	if !ok {
		return false
	}
	pass, ok := a.prompt("Contraseña: ")
	if !ok {
		return false
	}
	if err := a.nav.Login(ctx, user, pass); err != nil {
		a.fail(err)
	}
	return true
}

func (a *app) menu(ctx context.Context) bool {
	s := a.nav.Session()
	a.printf("\nBienvenido, %s\n", s.User.FullName)
	for i, t := range evaluation.Types {
		a.printf("  %d) %s\n", i+1, typeLabels[t])
	}
	a.printf("  s) Cerrar sesión\n")
	choice, ok := a.prompt("> ")
	if !ok {
		return false
	}
	if choice == "s" {
		a.nav.Logout()
		return true
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(evaluation.Types) {
		a.printf("Opción no válida\n")
		return true
	}
	if err := a.nav.SelectEvaluation(ctx, evaluation.Types[n-1]); err != nil && !errors.Is(err, evaluation.ErrExamBlocked) {
		a.fail(err)
	}
	return true
}

func (a *app) blocked() bool {
	s := a.nav.Session()
	a.printf("\nExámenes bloqueados\n")
	if b := s.Block; b != nil {
		if b.Reason != nil {
			a.printf("  Motivo: %s\n", *b.Reason)
		}
		if b.BlockedAt != nil {
			a.printf("  Fecha: %s\n", *b.BlockedAt)
		}
		if b.BlockedBy != nil {
			a.printf("  Bloqueado por: %s\n", *b.BlockedBy)
		}
	}
	if _, ok := a.prompt("Presiona Enter para cerrar sesión "); !ok {
		return false
	}
	a.nav.Logout()
	return true
}

// nextQuestion finds the first unanswered question in template order.
func nextQuestion(s navigator.Session) (section, question int, q evaluation.Question, ok bool) {
	for si, sec := range s.Template.Sections {
		for qi, qq := range sec.Flatten() {
			if _, answered := s.State.Answer(si, qi); !answered {
				return si, qi, qq, true
			}
		}
	}
	return 0, 0, evaluation.Question{}, false
}

func (a *app) question(ctx context.Context) bool {
	s := a.nav.Session()
	si, qi, q, ok := nextQuestion(s)
	if !ok {
		// every question is answered but the screen did not move on
		return false
	}
	a.printf("\n[%s · %.0f%%] %s\n", s.Template.Sections[si].Name, 100*s.State.ProgressFraction(), q.Prompt)
	label := "(s/n, ?N para revisar la sección N) > "
	if !q.Scored() {
		label = "> "
	}
	in, ok := a.prompt(label)
	if !ok {
		return false
	}
	if strings.HasPrefix(in, "?") {
		n, err := strconv.Atoi(strings.TrimPrefix(in, "?"))
		if err != nil {
			a.printf("Sección no válida\n")
			return true
		}
		if _, err := a.nav.ReopenSection(n - 1); err != nil {
			a.printf("La sección %d no está completa\n", n)
		}
		return true
	}
	if in == "" {
		a.printf("Respuesta requerida\n")
		return true
	}
	value := in
	if q.Scored() {
		switch strings.ToLower(in) {
		case "s", "si", "sí":
			value = evaluation.CorrectMarker
		case "n", "no":
			value = "no"
		default:
			a.printf("Responde s o n\n")
			return true
		}
	}
	err := a.nav.Answer(ctx, si, qi, value)
	a.saveErr = nil
	if err != nil {
		if a.nav.Screen() == navigator.ScreenResults {
			a.saveErr = err
		}
		a.fail(err)
	}
	return true
}

func (a *app) modal() bool {
	s := a.nav.Session()
	if s.Modal != nil {
		a.printf("\n")
		_ = results.RenderSection(a.out, s.Modal.Summary)
	}
	if _, ok := a.prompt("Presiona Enter para continuar "); !ok {
		return false
	}
	_ = a.nav.ContinueFromModal()
	return true
}

func (a *app) results(ctx context.Context) bool {
	s := a.nav.Session()
	a.printf("\n")
	_ = results.Render(a.out, *s.Result)
	opts := "e) Exportar  n) Nueva evaluación  s) Cerrar sesión  q) Salir"
	if a.saveErr != nil {
		opts = "g) Reintentar guardado  " + opts
	}
	choice, ok := a.prompt(opts + "\n> ")
	if !ok {
		return false
	}
	switch choice {
	case "e":
		key, err := a.exporter.Export(*s.Result)
		if err != nil {
			a.printf("! No se pudo exportar el reporte\n")
			return true
		}
		if url, err := a.exporter.Blobs.URL(key); err == nil {
			a.printf("Reporte guardado en %s\n", url)
		}
	case "g":
		if err := a.nav.RetrySave(ctx); err != nil {
			a.fail(err)
			return true
		}
		a.saveErr = nil
		a.printf("Resultado guardado\n")
	case "n":
		a.saveErr = nil
		_ = a.nav.NewEvaluation()
	case "s":
		a.saveErr = nil
		a.nav.Logout()
	case "q":
		return false
	}
	return true
}
