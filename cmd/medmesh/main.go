// Copyright 2025 The MedMesh Authors
// SPDX-License-Identifier: Apache-2.0

// Command medmesh runs the hospital agent mesh: the coordinator, the
// patient registry, the doctor roster, the appointment booking agent, and
// the streaming analysis agent, each as an A2A service.
//
// Usage:
//
//	medmesh registry
//	medmesh coordinator --registry-url http://localhost:8001/a2a/v1
//	medmesh all
//	medmesh demo
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/medmesh/medmesh/a2a"
	"github.com/medmesh/medmesh/agents/analysis"
	"github.com/medmesh/medmesh/agents/booking"
	"github.com/medmesh/medmesh/agents/registry"
	"github.com/medmesh/medmesh/agents/roster"
	"github.com/medmesh/medmesh/auth"
	"github.com/medmesh/medmesh/client"
	"github.com/medmesh/medmesh/coordinator"
	"github.com/medmesh/medmesh/server"
	"github.com/medmesh/medmesh/server/task"
)

// CLI defines the command-line interface.
type CLI struct {
	Coordinator CoordinatorCmd `cmd:"" help:"Start the coordinator agent."`
	Registry    RegistryCmd    `cmd:"" help:"Start the patient registry agent."`
	Roster      RosterCmd      `cmd:"" help:"Start the doctor roster agent."`
	Booking     BookingCmd     `cmd:"" help:"Start the appointment booking agent."`
	Analysis    AnalysisCmd    `cmd:"" help:"Start the streaming analysis agent."`
	All         AllCmd         `cmd:"" help:"Start every agent in one process."`
	Demo        DemoCmd        `cmd:"" help:"Run the demo client flow against a running mesh."`

	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info" env:"MEDMESH_LOG_LEVEL"`
	Host     string `help:"Bind address for agents." default:"localhost" env:"MEDMESH_HOST"`

	APIKeys   []string `name:"api-key" help:"Accepted API keys; enables the auth gatekeeper." env:"MEDMESH_API_KEYS"`
	JWTSecret string   `name:"jwt-secret" help:"HS256 secret for bearer tokens; enables the auth gatekeeper." env:"MEDMESH_JWT_SECRET"`
	JWTIssuer string   `name:"jwt-issuer" help:"Expected JWT issuer." default:"medmesh" env:"MEDMESH_JWT_ISSUER"`

	TaskTTL    time.Duration `name:"task-ttl" help:"Evict terminal tasks older than this; 0 keeps them forever." default:"0" env:"MEDMESH_TASK_TTL"`
	StageDelay time.Duration `name:"stage-delay" help:"Pause between streamed stages." default:"500ms" env:"MEDMESH_STAGE_DELAY"`
}

// authenticators builds the configured gatekeepers, if any.
func (cli *CLI) authenticators() []auth.Authenticator {
	var auths []auth.Authenticator
	if len(cli.APIKeys) > 0 {
		auths = append(auths, auth.NewAPIKeyAuthenticator(cli.APIKeys...))
	}
	if cli.JWTSecret != "" {
		auths = append(auths, auth.NewTokenAuthenticator([]byte(cli.JWTSecret), cli.JWTIssuer))
	}
	return auths
}

// newServer assembles one agent runtime from the shared CLI settings.
func (cli *CLI) newServer(config server.Config, handler server.Handler) (*server.Server, error) {
	config.Host = cli.Host

	opts := []server.Option{
		server.WithStageDelay(cli.StageDelay),
	}
	if cli.TaskTTL > 0 {
		opts = append(opts, server.WithStore(task.NewInMemoryStore(task.WithTTL(cli.TaskTTL))))
	}
	if auths := cli.authenticators(); len(auths) > 0 {
		config.SecuritySchemes = auth.SecuritySchemes(auths...)
		config.Security = auth.SecurityRequirements(auths...)
		opts = append(opts, server.WithInterceptor(auth.Interceptor(auths...)))
	}
	return server.New(config, handler, opts...)
}

func runServer(cli *CLI, config server.Config, handler server.Handler) error {
	s, err := cli.newServer(config, handler)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// RegistryCmd starts the patient registry agent.
type RegistryCmd struct {
	Port int `help:"Listen port." default:"8001" env:"MEDMESH_REGISTRY_PORT"`
}

func (c *RegistryCmd) Run(cli *CLI) error {
	agent := registry.New()
	return runServer(cli, server.Config{
		Name:        "Patient Registration Agent",
		Description: "Handles patient registration, verification, and lookup services for the hospital system",
		Port:        c.Port,
		Version:     "1.0.0",
		Skills:      agent.Skills(),
	}, agent)
}

// RosterCmd starts the doctor roster agent.
type RosterCmd struct {
	Port int `help:"Listen port." default:"8002" env:"MEDMESH_ROSTER_PORT"`
}

func (c *RosterCmd) Run(cli *CLI) error {
	agent := roster.New(time.Now())
	return runServer(cli, server.Config{
		Name:        "Doctor Availability Agent",
		Description: "Manages doctor schedules and availability for appointment booking",
		Port:        c.Port,
		Version:     "1.0.0",
		Skills:      agent.Skills(),
	}, agent)
}

// BookingCmd starts the appointment booking agent.
type BookingCmd struct {
	Port int `help:"Listen port." default:"8003" env:"MEDMESH_BOOKING_PORT"`
}

func (c *BookingCmd) Run(cli *CLI) error {
	agent := booking.New()
	return runServer(cli, server.Config{
		Name:        "Appointment Booking Agent",
		Description: "Handles appointment booking, modification, and cancellation services",
		Port:        c.Port,
		Version:     "1.0.0",
		Skills:      agent.Skills(),
	}, agent)
}

// AnalysisCmd starts the streaming analysis agent.
type AnalysisCmd struct {
	Port int `help:"Listen port." default:"8005" env:"MEDMESH_ANALYSIS_PORT"`
}

func (c *AnalysisCmd) Run(cli *CLI) error {
	agent := analysis.New()
	return runServer(cli, server.Config{
		Name:         "Streaming Medical Analysis Agent",
		Description:  "Provides streaming medical analysis with real-time updates",
		Port:         c.Port,
		Version:      "1.0.0",
		Skills:       agent.Skills(),
		Capabilities: map[string]bool{a2a.CapabilityStreaming: true},
	}, agent)
}

// CoordinatorCmd starts the coordinator agent.
type CoordinatorCmd struct {
	Port        int    `help:"Listen port." default:"8000" env:"MEDMESH_COORDINATOR_PORT"`
	RegistryURL string `name:"registry-url" help:"Patient registry RPC endpoint." default:"http://localhost:8001/a2a/v1" env:"MEDMESH_REGISTRY_URL"`
	RosterURL   string `name:"roster-url" help:"Doctor roster RPC endpoint." default:"http://localhost:8002/a2a/v1" env:"MEDMESH_ROSTER_URL"`
	BookingURL  string `name:"booking-url" help:"Appointment booking RPC endpoint." default:"http://localhost:8003/a2a/v1" env:"MEDMESH_BOOKING_URL"`

	StepTimeout time.Duration `name:"step-timeout" help:"Per-step outbound call timeout." default:"30s" env:"MEDMESH_STEP_TIMEOUT"`
}

func (c *CoordinatorCmd) handler() (*coordinator.Coordinator, error) {
	return coordinator.New(
		client.New(),
		coordinator.BookingSteps(c.RegistryURL, c.RosterURL, c.BookingURL),
		coordinator.WithStepTimeout(c.StepTimeout),
	)
}

func (c *CoordinatorCmd) config(port int) server.Config {
	return server.Config{
		Name:        "Hospital Coordinator Agent",
		Description: "Main coordinator that orchestrates appointment booking workflows across all hospital systems",
		Port:        port,
		Version:     "1.0.0",
		Skills: []a2a.AgentSkill{
			{
				ID:          "appointment-orchestration",
				Name:        "Appointment Orchestration",
				Description: "Coordinate complete appointment booking workflow across all hospital agents",
				Tags:        []string{"orchestration", "workflow", "coordination"},
				Examples: []string{
					"Book appointment for John Doe with cardiology",
					"Help me schedule a checkup with Dr. Johnson next week",
				},
			},
		},
	}
}

func (c *CoordinatorCmd) Run(cli *CLI) error {
	handler, err := c.handler()
	if err != nil {
		return err
	}
	return runServer(cli, c.config(c.Port), handler)
}

// AllCmd starts every agent in one process, each on its own port.
type AllCmd struct {
	CoordinatorCmd CoordinatorCmd `embed:""`

	RegistryPort int `help:"Registry listen port." default:"8001" env:"MEDMESH_REGISTRY_PORT"`
	RosterPort   int `help:"Roster listen port." default:"8002" env:"MEDMESH_ROSTER_PORT"`
	BookingPort  int `help:"Booking listen port." default:"8003" env:"MEDMESH_BOOKING_PORT"`
	AnalysisPort int `help:"Analysis listen port." default:"8005" env:"MEDMESH_ANALYSIS_PORT"`
}

func (c *AllCmd) Run(cli *CLI) error {
	registryAgent := registry.New()
	rosterAgent := roster.New(time.Now())
	bookingAgent := booking.New()
	analysisAgent := analysis.New()

	coordHandler, err := c.CoordinatorCmd.handler()
	if err != nil {
		return err
	}

	specs := []struct {
		config  server.Config
		handler server.Handler
	}{
		{c.CoordinatorCmd.config(c.CoordinatorCmd.Port), coordHandler},
		{server.Config{
			Name:        "Patient Registration Agent",
			Description: "Handles patient registration, verification, and lookup services for the hospital system",
			Port:        c.RegistryPort,
			Version:     "1.0.0",
			Skills:      registryAgent.Skills(),
		}, registryAgent},
		{server.Config{
			Name:        "Doctor Availability Agent",
			Description: "Manages doctor schedules and availability for appointment booking",
			Port:        c.RosterPort,
			Version:     "1.0.0",
			Skills:      rosterAgent.Skills(),
		}, rosterAgent},
		{server.Config{
			Name:        "Appointment Booking Agent",
			Description: "Handles appointment booking, modification, and cancellation services",
			Port:        c.BookingPort,
			Version:     "1.0.0",
			Skills:      bookingAgent.Skills(),
		}, bookingAgent},
		{server.Config{
			Name:         "Streaming Medical Analysis Agent",
			Description:  "Provides streaming medical analysis with real-time updates",
			Port:         c.AnalysisPort,
			Version:      "1.0.0",
			Skills:       analysisAgent.Skills(),
			Capabilities: map[string]bool{a2a.CapabilityStreaming: true},
		}, analysisAgent},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servers := make([]*server.Server, 0, len(specs))
	for _, spec := range specs {
		s, err := cli.newServer(spec.config, spec.handler)
		if err != nil {
			return err
		}
		if err := s.Start(ctx); err != nil {
			return err
		}
		servers = append(servers, s)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, s := range servers {
		if err := s.Shutdown(shutdownCtx); err != nil {
			slog.Warn("shutdown", "error", err)
		}
	}
	return nil
}

// DemoCmd exercises discovery and the booking workflow against a running
// mesh.
type DemoCmd struct {
	CoordinatorURL string `name:"coordinator-url" help:"Coordinator base URL." default:"http://localhost:8000"`
	RegistryURL    string `name:"registry-url" help:"Registry base URL." default:"http://localhost:8001"`
	RosterURL      string `name:"roster-url" help:"Roster base URL." default:"http://localhost:8002"`
	BookingURL     string `name:"booking-url" help:"Booking base URL." default:"http://localhost:8003"`
}

func (c *DemoCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resolver := client.NewCardResolver(nil)
	cl := client.New()

	fmt.Println("Discovering available agents...")
	for _, base := range []string{c.CoordinatorURL, c.RegistryURL, c.RosterURL, c.BookingURL} {
		card, err := resolver.Resolve(ctx, base)
		if err != nil {
			return fmt.Errorf("agent at %s not available: %w", base, err)
		}
		fmt.Printf("  %s (%s, %d skills)\n", card.Name, card.Version, len(card.Skills))
	}

	fmt.Println("Registering new patient...")
	registration := "Register new patient:\nName: John Doe\nEmail: john.doe@email.com\nPhone: (555) 123-4567"
	t, err := cl.SendMessage(ctx, c.RegistryURL+a2a.DefaultRPCPath, a2a.NewUserMessage(a2a.NewTextPart(registration)))
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	fmt.Printf("  registration status: %s\n", t.Status.State)

	fmt.Println("Searching for cardiologists...")
	t, err = cl.SendMessage(ctx, c.RosterURL+a2a.DefaultRPCPath, a2a.NewUserMessage(a2a.NewTextPart("Find cardiologists available this week")))
	if err != nil {
		return fmt.Errorf("doctor search failed: %w", err)
	}
	fmt.Printf("  search status: %s\n", t.Status.State)

	fmt.Println("Executing complete booking workflow...")
	t, err = cl.SendMessage(ctx, c.CoordinatorURL+a2a.DefaultRPCPath, a2a.NewUserMessage(a2a.NewTextPart("Book appointment for John Doe with cardiology department for next week")))
	if err != nil {
		return fmt.Errorf("workflow failed: %w", err)
	}
	fmt.Printf("  workflow status: %s\n", t.Status.State)

	fmt.Println("Demo completed.")
	return nil
}

func main() {
	// Missing .env is fine; flags and real env vars still apply.
	_ = godotenv.Load()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("medmesh"),
		kong.Description("Hospital appointment booking mesh built on the A2A protocol."),
		kong.UsageOnError(),
	)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx.FatalIfErrorf(ctx.Run(&cli))
}
