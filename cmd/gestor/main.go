// gestor es la interfaz de línea de comandos del gestor de contratos
// financieros: tablas de registros validados, auditoría de mutaciones,
// series mensuales de parcelas, importación y exportación de lotes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/gestion-financiera/internal/application/dto"
	"github.com/jhoicas/gestion-financiera/internal/application/usecase"
	"github.com/jhoicas/gestion-financiera/internal/domain/entity"
	"github.com/jhoicas/gestion-financiera/internal/domain/policy"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/auditfile"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/report"
	"github.com/jhoicas/gestion-financiera/internal/infrastructure/sqlite"
	"github.com/jhoicas/gestion-financiera/pkg/config"
	"github.com/jhoicas/gestion-financiera/pkg/logger"
)

// app agrupa las dependencias ya cableadas de la aplicación.
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	client      *sqlite.Client
	policies    *policy.Store
	records     *usecase.RecordUseCase
	aggregation *usecase.AggregationUseCase
	imports     *usecase.ImportUseCase
	exports     *usecase.ExportUseCase
	maintenance *usecase.MaintenanceUseCase
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.AppEnv, Level: cfg.LogLevel})

	client, err := sqlite.NewClient(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	repo := sqlite.NewTableRepository(client)
	policies := policy.NewStore(cfg.SettingsPath, repo)
	if err := policies.Load(); err != nil {
		client.Close()
		return nil, err
	}

	records := usecase.NewRecordUseCase(repo, auditfile.NewLog(cfg.LogsDir), policies, log, cfg.Actor)
	aggregation := usecase.NewAggregationUseCase(repo, policies)

	return &app{
		cfg:         cfg,
		log:         log,
		client:      client,
		policies:    policies,
		records:     records,
		aggregation: aggregation,
		imports:     usecase.NewImportUseCase(records, log),
		exports: usecase.NewExportUseCase(records, aggregation,
			report.NewGenerator(cfg.AppName), client, log),
		maintenance: usecase.NewMaintenanceUseCase(cfg.UpdateScript, cfg.DataDir,
			cfg.LogsDir, time.Duration(cfg.UpdateTimeoutSeconds)*time.Second, log),
	}, nil
}

func (a *app) close() {
	if err := a.client.Close(); err != nil {
		a.log.Error().Err(err).Msg("error al cerrar la base de datos")
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer a.close()

	root := &cobra.Command{
		Use:           "gestor",
		Short:         "Gestor de contratos financieros",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.cmdTables(),
		a.cmdCreateTable(),
		a.cmdDropTable(),
		a.cmdRows(),
		a.cmdInsert(),
		a.cmdUpdateCell(),
		a.cmdDelete(),
		a.cmdMove(),
		a.cmdImport(),
		a.cmdExport(),
		a.cmdBackup(),
		a.cmdSeries(),
		a.cmdSummary(),
		a.cmdCompanies(),
		a.cmdPolicy(),
		a.cmdMaintenance(),
		a.cmdWatch(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) cmdTables() *cobra.Command {
	return &cobra.Command{
		Use:   "tablas",
		Short: "Lista las tablas existentes",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.records.Tables(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Println(t)
			}
			return nil
		},
	}
}

func (a *app) cmdCreateTable() *cobra.Command {
	return &cobra.Command{
		Use:   "crear-tabla <nombre>",
		Short: "Crea una tabla con el esquema de contratos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.records.CreateTable(cmd.Context(), args[0])
		},
	}
}

func (a *app) cmdDropTable() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "eliminar-tabla <nombre>",
		Short: "Elimina la tabla completa y sus políticas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("la eliminación es definitiva; repita con --confirmar")
			}
			return a.records.DropTable(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVar(&force, "confirmar", false, "confirma la eliminación definitiva")
	return cmd
}

func (a *app) cmdRows() *cobra.Command {
	return &cobra.Command{
		Use:   "filas <tabla>",
		Short: "Muestra las filas de la tabla en JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := a.records.Rows(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(rows)
		},
	}
}

func (a *app) cmdInsert() *cobra.Command {
	return &cobra.Command{
		Use:   "insertar <tabla> <columna=valor>...",
		Short: "Inserta una fila nueva",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			return a.records.Insert(cmd.Context(), args[0], rec)
		},
	}
}

func (a *app) cmdUpdateCell() *cobra.Command {
	return &cobra.Command{
		Use:   "actualizar <tabla> <id> <columna> <valor>",
		Short: "Modifica una celda de una fila existente",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.records.UpdateCell(cmd.Context(), args[0], args[2], args[3], args[1])
		},
	}
}

func (a *app) cmdDelete() *cobra.Command {
	return &cobra.Command{
		Use:   "eliminar <tabla> <id>",
		Short: "Elimina una fila",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.records.Delete(cmd.Context(), args[0], args[1])
		},
	}
}

func (a *app) cmdMove() *cobra.Command {
	var (
		newID string
		fill  []string
	)
	cmd := &cobra.Command{
		Use:   "mover <origen> <destino> <id>",
		Short: "Traslada una fila a otra tabla",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fillMap, err := parseAssignments(fill)
			if err != nil {
				return err
			}
			return a.records.Move(cmd.Context(), dto.MoveRequest{
				FromTable: args[0], ToTable: args[1], ID: args[2],
				NewID: newID, Fill: map[string]string(fillMap),
			})
		},
	}
	cmd.Flags().StringVar(&newID, "nuevo-id", "", "id a usar en la tabla destino")
	cmd.Flags().StringArrayVar(&fill, "completar", nil,
		"columna=valor para completar obligatorias del destino")
	return cmd
}

func (a *app) cmdImport() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "importar <tabla> <archivo>",
		Short: "Importa un lote de filas desde CSV o JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.imports.Import(cmd.Context(), dto.ImportRequest{
				Table:  args[0],
				Path:   args[1],
				Format: dto.ImportFormat(format),
			})
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
	cmd.Flags().StringVar(&format, "formato", "csv", "formato del archivo: csv o json")
	return cmd
}

func (a *app) cmdExport() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "exportar",
		Short: "Exporta todas las tablas, el consolidado y el informe PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.ExportDir
			}
			res, err := a.exports.Export(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Println(res.Dir)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directorio base de la exportación")
	return cmd
}

func (a *app) cmdBackup() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Crea una copia fría del archivo de datos",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.exports.Backup(a.cfg.BackupDir)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

func (a *app) cmdSeries() *cobra.Command {
	var (
		groupBy   string
		metric    string
		companies []string
		from, to  string
	)
	cmd := &cobra.Command{
		Use:   "serie <tabla>...",
		Short: "Serie mensual de parcelas, amortización o intereses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.AggregateRequest{Tables: args, Companies: companies}
			var err error
			if req.GroupBy, err = dto.ParseGroupBy(groupBy); err != nil {
				return err
			}
			if req.Metric, err = dto.ParseMetric(metric); err != nil {
				return err
			}
			if req.Start, err = parseOptionalDate(from); err != nil {
				return err
			}
			if req.End, err = parseOptionalDate(to); err != nil {
				return err
			}
			res, err := a.aggregation.Aggregate(cmd.Context(), req)
			if err != nil {
				return err
			}
			printSeries(res)
			return nil
		},
	}
	cmd.Flags().StringVar(&groupBy, "agrupar", string(dto.GroupByCompany),
		"dimensión: por_empresa, por_banco o tudo")
	cmd.Flags().StringVar(&metric, "metrica", string(dto.MetricPaid),
		"métrica: parcelas, amortizacao o juros")
	cmd.Flags().StringSliceVar(&companies, "empresas", nil, "filtra por estas empresas")
	cmd.Flags().StringVar(&from, "desde", "", "inicio del rango (dd-mm-aaaa, inclusive)")
	cmd.Flags().StringVar(&to, "hasta", "", "fin del rango (dd-mm-aaaa, exclusivo)")
	return cmd
}

func (a *app) cmdSummary() *cobra.Command {
	var groupBy string
	cmd := &cobra.Command{
		Use:   "resumen <tabla>...",
		Short: "Suma y media de las columnas de reporte por grupo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := dto.ParseGroupBy(groupBy)
			if err != nil {
				return err
			}
			res, err := a.aggregation.Summary(cmd.Context(), args, g)
			if err != nil {
				return err
			}
			for _, g := range res.Groups {
				fmt.Printf("%s:\n", g.Name)
				for _, s := range g.Stats {
					fmt.Printf("  %-24s suma=%s  media=%s  n=%d\n",
						s.Column, report.FormatAmount(s.Sum), report.FormatAmount(s.Mean), s.Count)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&groupBy, "agrupar", string(dto.GroupByCompany),
		"dimensión: por_empresa, por_banco o tudo")
	return cmd
}

func (a *app) cmdCompanies() *cobra.Command {
	return &cobra.Command{
		Use:   "empresas <tabla>...",
		Short: "Empresas y rango de fechas presentes en los cronogramas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			companies, min, max, err := a.aggregation.CompaniesAndRange(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, c := range companies {
				fmt.Println(c)
			}
			if !min.IsZero() {
				fmt.Printf("rango: %s a %s\n",
					min.Format(usecase.DateLayout), max.Format(usecase.DateLayout))
			}
			return nil
		},
	}
}

func (a *app) cmdPolicy() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "politica",
		Short: "Consulta y define políticas de columna",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ver <tabla> <columna>",
		Short: "Muestra la política efectiva de la columna",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(a.policies.Resolve(args[0], args[1]))
		},
	})

	var (
		colType  string
		fixed    []string
		required bool
	)
	set := &cobra.Command{
		Use:   "definir <tabla> <columna>",
		Short: "Define la política de la columna (tabla '*' aplica a todas)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := policy.Policy{
				Type:     policy.ColumnType(colType),
				Mode:     policy.ModeFree,
				Required: required,
			}
			if len(fixed) > 0 {
				p.Mode = policy.ModeFixed
				p.Values = fixed
			}
			return a.policies.Set(cmd.Context(), args[0], args[1], p)
		},
	}
	set.Flags().StringVar(&colType, "tipo", string(policy.TypeText),
		"tipo de la columna: text, int, float o date")
	set.Flags().StringSliceVar(&fixed, "valores", nil,
		"restringe la columna a este conjunto fijo")
	set.Flags().BoolVar(&required, "obligatoria", false, "la columna no puede quedar vacía")
	cmd.AddCommand(set)

	return cmd
}

func (a *app) cmdMaintenance() *cobra.Command {
	return &cobra.Command{
		Use:   "mantenimiento",
		Short: "Ejecuta el script externo de mantenimiento de datos",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.maintenance.Run(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("el mantenimiento falló (exit %d); salida en %s",
					res.ExitCode, res.LogPath)
			}
			fmt.Println("mantenimiento completo; salida en", res.LogPath)
			return nil
		},
	}
}

func (a *app) cmdWatch() *cobra.Command {
	return &cobra.Command{
		Use:   "vigilar",
		Short: "Recarga las políticas cuando el archivo de configuración cambia",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.log.Info().Str("archivo", a.cfg.SettingsPath).Msg("vigilando configuración")
			err := a.policies.Watch(cmd.Context(), func() {
				a.log.Info().Msg("políticas recargadas")
			})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

// parseAssignments interpreta pares columna=valor de la línea de comandos.
func parseAssignments(args []string) (entity.Record, error) {
	rec := entity.Record{}
	for _, arg := range args {
		col, val, ok := strings.Cut(arg, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("argumento %q: se esperaba columna=valor", arg)
		}
		rec[col] = val
	}
	return rec, nil
}

func parseOptionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(usecase.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q: se esperaba dd-mm-aaaa", s)
	}
	return t, nil
}

func printSeries(res *dto.AggregateResult) {
	if res.Empty() {
		fmt.Println("sin datos en el período")
		return
	}
	fmt.Printf("%-8s", "mes")
	for _, g := range res.Groups {
		fmt.Printf("  %16s", g)
	}
	fmt.Println()
	for _, m := range res.Months {
		fmt.Printf("%-8s", m)
		for _, g := range res.Groups {
			fmt.Printf("  %16s", report.FormatAmount(res.Value(m, g)))
		}
		fmt.Println()
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
