package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/mind-engage/plant-eval/internal/evaluation"
	"github.com/mind-engage/plant-eval/internal/rbac"
)

const demoCompany = "planta-demo"

// seedDemo is idempotent: existing templates are kept and duplicate users
// are skipped.
func seedDemo(ctx context.Context, store evaluation.Store, logger *slog.Logger) error {
	if err := store.CreateCompany(ctx, demoCompany, "Planta Demo"); err != nil {
		logger.Info("seed: company exists", "id", demoCompany)
	}

	adminPass := os.Getenv("ADMIN_PASSWORD")
	if adminPass == "" {
		adminPass = "admin"
	}
	users := []evaluation.NewUser{
		{ID: "admin", Username: "admin", Password: adminPass, FullName: "Administrador", Role: rbac.RoleAdmin, CompanyID: demoCompany},
		{ID: "supervisor", Username: "supervisor", Password: "supervisor", FullName: "Supervisor de planta", Role: rbac.RoleSupervisor, CompanyID: demoCompany},
		{ID: "evaluador", Username: "evaluador", Password: "evaluador", FullName: "Evaluador de planta", Role: rbac.RoleEvaluator, CompanyID: demoCompany},
	}
	for _, u := range users {
		if _, err := store.CreateUser(ctx, u); err != nil {
			logger.Info("seed: user skipped", "username", u.Username, "err", err)
		}
	}
	for _, t := range []evaluation.Type{evaluation.TypePersonal, evaluation.TypeEquipo} {
		if err := store.SetPermission(ctx, "evaluador", t, true); err != nil {
			return fmt.Errorf("seed permission %s: %w", t, err)
		}
	}

	for _, tmpl := range demoTemplates() {
		_, err := store.Template(ctx, tmpl.Type)
		if err == nil {
			continue
		}
		if !errors.Is(err, evaluation.ErrNotFound) {
			return err
		}
		if err := store.PutTemplate(ctx, tmpl); err != nil {
			return fmt.Errorf("seed template %s: %w", tmpl.Type, err)
		}
		logger.Info("seed: template created", "type", tmpl.Type, "questions", tmpl.QuestionCount())
	}
	return nil
}

func yesNo(prefix string, prompts ...string) []evaluation.Question {
	out := make([]evaluation.Question, len(prompts))
	for i, p := range prompts {
		out[i] = evaluation.Question{ID: fmt.Sprintf("%s-%d", prefix, i+1), Prompt: p}
	}
	return out
}

func demoTemplates() []evaluation.Evaluation {
	return []evaluation.Evaluation{
		{
			Title: "Evaluación de Personal",
			Type:  evaluation.TypePersonal,
			Sections: []evaluation.Section{
				{Name: "Seguridad", Weight: 40, Questions: yesNo("per-seg",
					"¿Conoce el uso correcto del equipo de protección personal?",
					"¿Sabe actuar ante un derrame de aditivos?",
					"¿Identifica las rutas de evacuación de la planta?")},
				{Name: "Producción", Weight: 35, Questions: yesNo("per-prod",
					"¿Conoce la secuencia de carga de la mezcladora?",
					"¿Sabe interpretar una dosificación?",
					"¿Registra correctamente las remisiones de salida?")},
				{Name: "Calidad", Weight: 25, Questions: yesNo("per-cal",
					"¿Sabe realizar la prueba de revenimiento?",
					"¿Conoce el procedimiento de toma de cilindros?")},
			},
		},
		{
			Title: "Evaluación de Equipo",
			Type:  evaluation.TypeEquipo,
			Sections: []evaluation.Section{
				{Name: "Mezcladora", Weight: 50, Subsections: []evaluation.Subsection{
					{Name: "Mecánica", Questions: yesNo("eq-mez-mec",
						"¿Las aspas se encuentran sin desgaste visible?",
						"¿El motor opera sin ruidos anormales?")},
					{Name: "Limpieza", Questions: yesNo("eq-mez-lim",
						"¿La olla está libre de concreto endurecido?")},
				}},
				{Name: "Básculas", Weight: 30, Questions: yesNo("eq-bas",
					"¿La báscula de cemento está calibrada?",
					"¿La báscula de agregados está calibrada?")},
				{Name: "Bandas transportadoras", Weight: 20, Questions: yesNo("eq-ban",
					"¿Las bandas están alineadas?",
					"¿Los rodillos giran libremente?")},
			},
		},
		{
			Title: "Evaluación de Operación",
			Type:  evaluation.TypeOperacion,
			Sections: []evaluation.Section{
				{Name: "Procedimientos", Weight: 60, Questions: yesNo("op-proc",
					"¿Se verifica la humedad de los agregados antes de cada turno?",
					"¿Se lleva bitácora de producción diaria?")},
				{Name: "Parámetros", Weight: 40, Questions: []evaluation.Question{
					{ID: "op-par-1", Prompt: "Producción promedio diaria (m³)", Kind: evaluation.KindNumeric},
					{ID: "op-par-2", Prompt: "Observaciones del turno", Kind: evaluation.KindText},
					{ID: "op-par-3", Prompt: "¿Se cumplió el programa de entregas?"},
				}},
			},
		},
		{
			Title: "Evaluación de Jefe de Planta",
			Type:  evaluation.TypeJefePlanta,
			Sections: []evaluation.Section{
				{Name: "Gestión", Weight: 50, Questions: yesNo("jp-ges",
					"¿Revisa los indicadores de producción semanalmente?",
					"¿Da seguimiento a las quejas de clientes?")},
				{Name: "Personal", Weight: 50, Questions: yesNo("jp-per",
					"¿Mantiene actualizado el programa de capacitación?",
					"¿Realiza reuniones de seguridad semanales?")},
			},
		},
	}
}
