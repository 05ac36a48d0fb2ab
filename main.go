// ABOUTME: Entry point for the stately lead service and sync agent
// ABOUTME: Routes to serve, sync, daemon, or crm commands based on arguments
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/harperreed/stately/config"
	"github.com/harperreed/stately/engine"
	"github.com/harperreed/stately/mirror"
	"github.com/harperreed/stately/models"
	"github.com/harperreed/stately/remote"
	"github.com/harperreed/stately/seed"
	"github.com/harperreed/stately/server"
	"github.com/harperreed/stately/store"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	dataDir := flag.String("data-dir", "", "Mirror database directory (default: XDG data dir)")
	remoteURL := flag.String("remote-url", "", "Lead service base URL")
	actAs := flag.String("as", "", "Acting user (name or id, default: first Admin)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("stately version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg := config.Load()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *remoteURL != "" {
		cfg.RemoteURL = *remoteURL
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "serve":
		runServe(cfg)

	case "sync":
		eng, closeFn := openEngine(cfg, *actAs)
		defer closeFn()
		eng.Load(context.Background())
		fmt.Printf("Synced %d leads, %d users\n", len(eng.Leads()), len(eng.Snapshot().Users))

	case "daemon":
		eng, closeFn := openEngine(cfg, *actAs)
		defer closeFn()
		runDaemon(cfg, eng)

	case "crm":
		if len(commandArgs) == 0 {
			fmt.Println("Error: crm requires a subcommand")
			printUsage()
			os.Exit(1)
		}
		eng, closeFn := openEngine(cfg, *actAs)
		defer closeFn()
		if err := runCRMCommand(eng, commandArgs[0], commandArgs[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServe(cfg *config.Config) {
	db, err := store.Open(cfg.ServiceDBPath)
	if err != nil {
		log.Fatalf("Failed to open service database: %v", err)
	}
	defer db.Close()

	log.Printf("Lead service database: %s", cfg.ServiceDBPath)
	log.Printf("Listening on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, server.NewRouter(db)); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func runDaemon(cfg *config.Config, eng *engine.Engine) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng.Load(ctx)
	log.Printf("Daemon started: %d leads in view, refresh every %s", len(eng.Leads()), cfg.LeadRefreshInterval)

	eng.RunPollers(ctx, engine.PollConfig{
		LeadRefresh:   cfg.LeadRefreshInterval,
		Notifications: cfg.NotificationInterval,
		Reminders:     cfg.ReminderInterval,
	})
	log.Println("Daemon stopped")
}

func openEngine(cfg *config.Config, actAs string) (*engine.Engine, func()) {
	mirrorStore, err := mirror.Open(cfg.DataDir, seed.Snapshot)
	if err != nil {
		log.Fatalf("Failed to open mirror: %v", err)
	}

	client := remote.NewClient(cfg.RemoteURL, nil)
	eng := engine.New(mirrorStore, client, nil)
	eng.SetUser(resolveUser(mirrorStore, actAs))
	eng.SetLeadsFromMirror()

	return eng, func() { _ = mirrorStore.Close() }
}

func resolveUser(mirrorStore *mirror.Store, actAs string) models.User {
	snap := mirrorStore.Snapshot()
	if actAs != "" {
		for _, u := range snap.Users {
			if u.ID == actAs || strings.EqualFold(u.Name, actAs) {
				return u
			}
		}
		log.Fatalf("Unknown user: %s", actAs)
	}
	for _, u := range snap.Users {
		if u.Role == models.RoleAdmin {
			return u
		}
	}
	if len(snap.Users) > 0 {
		return snap.Users[0]
	}
	log.Fatal("No users in mirror; delete the data directory to reseed")
	return models.User{}
}

func runCRMCommand(eng *engine.Engine, command string, args []string) error {
	ctx := context.Background()

	switch command {
	case "list-leads":
		leads := eng.VisibleLeads()
		snap := eng.Snapshot()
		for _, l := range leads {
			assignee := "Unassigned"
			if l.Assigned() {
				assignee = *l.AssignedSalespersonID
				for _, u := range snap.Users {
					if u.ID == assignee {
						assignee = u.Name
					}
				}
			}
			fmt.Printf("%-28s %-20s %-12s %-22s %s\n", l.ID, l.Name, l.Mobile, l.Status, assignee)
		}
		return nil

	case "list-users":
		for _, u := range eng.Snapshot().Users {
			fmt.Printf("%-40s %-20s %s\n", u.ID, u.Name, u.Role)
		}
		return nil

	case "list-tasks":
		for _, t := range eng.VisibleTasks() {
			done := " "
			if t.IsCompleted {
				done = "x"
			}
			fmt.Printf("[%s] %-24s %-40s due %s\n", done, t.ID, t.Title, t.DueDate.Format("2006-01-02"))
		}
		return nil

	case "create-lead":
		fs := flag.NewFlagSet("create-lead", flag.ExitOnError)
		name := fs.String("name", "", "Lead name (required)")
		mobile := fs.String("mobile", "", "Mobile number (required)")
		email := fs.String("email", "", "Email address")
		project := fs.String("project", "", "Project of interest")
		source := fs.String("source", "", "Lead source")
		_ = fs.Parse(args)
		lead, err := eng.CreateLead(ctx, models.Lead{
			Name: *name, Mobile: *mobile, Email: *email, Project: *project, Source: *source,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created lead %s\n", lead.ID)
		return nil

	case "assign-lead":
		fs := flag.NewFlagSet("assign-lead", flag.ExitOnError)
		to := fs.String("to", "", "Salesperson id (empty to unassign)")
		_ = fs.Parse(args)
		lead, err := findLead(eng, fs.Args())
		if err != nil {
			return err
		}
		if *to == "" {
			lead.AssignedSalespersonID = nil
		} else {
			lead.AssignedSalespersonID = to
		}
		return eng.SaveLead(ctx, *lead)

	case "update-status":
		fs := flag.NewFlagSet("update-status", flag.ExitOnError)
		status := fs.String("status", "", "New status (required)")
		remark := fs.String("remark", "", "Remark to record")
		_ = fs.Parse(args)
		if *status == "" {
			return fmt.Errorf("--status is required")
		}
		lead, err := findLead(eng, fs.Args())
		if err != nil {
			return err
		}
		lead.Status = models.LeadStatus(*status)
		if *remark != "" {
			lead.LastRemark = *remark
		}
		return eng.SaveLead(ctx, *lead)

	case "book-unit":
		fs := flag.NewFlagSet("book-unit", flag.ExitOnError)
		project := fs.String("project", "", "Project name (required)")
		unitID := fs.String("unit", "", "Unit id (required)")
		_ = fs.Parse(args)
		if *project == "" || *unitID == "" {
			return fmt.Errorf("--project and --unit are required")
		}
		lead, err := findLead(eng, fs.Args())
		if err != nil {
			return err
		}
		unit, err := findUnit(eng, *project, *unitID, lead.BookedUnitID)
		if err != nil {
			return err
		}
		lead.Status = models.StatusBooked
		lead.BookedProject = *project
		lead.BookedUnitID = unit.ID
		lead.BookedUnitNumber = unit.Number
		return eng.SaveLead(ctx, *lead)

	case "delete-lead":
		if len(args) == 0 {
			return fmt.Errorf("delete-lead requires a lead id")
		}
		return eng.DeleteLead(ctx, args[0])

	case "add-task":
		fs := flag.NewFlagSet("add-task", flag.ExitOnError)
		title := fs.String("title", "", "Task title (required)")
		assignee := fs.String("assignee", "", "Assigned user id (required)")
		due := fs.String("due", "", "Due date YYYY-MM-DD (required)")
		remind := fs.String("remind", "", "Reminder date-time RFC3339")
		_ = fs.Parse(args)
		if *title == "" || *assignee == "" || *due == "" {
			return fmt.Errorf("--title, --assignee and --due are required")
		}
		dueDate, err := time.Parse("2006-01-02", *due)
		if err != nil {
			return fmt.Errorf("invalid due date: %w", err)
		}
		task := models.Task{
			Title:        *title,
			AssignedToID: *assignee,
			DueDate:      dueDate,
			CreatedBy:    eng.CurrentUser().Name,
		}
		if *remind != "" {
			r, err := time.Parse(time.RFC3339, *remind)
			if err != nil {
				return fmt.Errorf("invalid reminder date: %w", err)
			}
			task.ReminderDate = &r
		}
		return eng.AddTask(task)

	case "complete-task":
		if len(args) == 0 {
			return fmt.Errorf("complete-task requires a task id")
		}
		return eng.CompleteTask(args[0])

	default:
		fmt.Printf("Unknown crm command: %s\n\n", command)
		printUsage()
		os.Exit(1)
		return nil
	}
}

func findLead(eng *engine.Engine, args []string) (*models.Lead, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("a lead id is required (flags must come before the lead id)")
	}
	id := args[0]
	for _, l := range eng.Leads() {
		if l.ID == id {
			lead := l
			return &lead, nil
		}
	}
	return nil, fmt.Errorf("lead %s not found", id)
}

func findUnit(eng *engine.Engine, projectName, unitID, currentUnitID string) (*models.Unit, error) {
	for _, p := range eng.Snapshot().Projects {
		if !strings.EqualFold(p.Name, projectName) && p.ID != projectName {
			continue
		}
		for _, u := range engine.AvailableUnits(p, currentUnitID) {
			if u.ID == unitID || u.Number == unitID {
				unit := u
				return &unit, nil
			}
		}
		return nil, fmt.Errorf("unit %s is not available in %s", unitID, projectName)
	}
	return nil, fmt.Errorf("project %s not found", projectName)
}

func printUsage() {
	fmt.Printf(`stately v%s - Real-estate CRM lead service and sync agent

USAGE:
  stately [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --data-dir <path>      Mirror database directory
  --remote-url <url>     Lead service base URL (default: http://localhost:8080)
  --as <user>            Acting user name or id (default: first Admin)

COMMANDS:
  serve                  Start the lead service (HTTP + SQLite)
  sync                   Run one user+lead sync cycle and exit
  daemon                 Run the background pollers until interrupted
  crm                    CRM commands against the local mirror

CRM COMMANDS:
  stately crm list-leads                 List visible leads
  stately crm list-users                 List users
  stately crm list-tasks                 List visible tasks

  stately crm create-lead --name <n> --mobile <m> [--email --project --source]

  stately crm assign-lead --to <userId> <leadId>
    Empty --to unassigns. Flags must come before the lead id.

  stately crm update-status --status <status> [--remark <text>] <leadId>

  stately crm book-unit --project <name> --unit <id> <leadId>

  stately crm delete-lead <leadId>       Admin only

  stately crm add-task --title <t> --assignee <userId> --due <YYYY-MM-DD>
                       [--remind <RFC3339>]
  stately crm complete-task <taskId>

EXAMPLES:
  # Start the service
  stately serve

  # One-off sync against a remote service
  stately --remote-url http://crm.example.com sync

  # Assign a lead as the admin
  stately crm assign-lead --to user-1710000000001 lead-1710001112223
`, version)
}
