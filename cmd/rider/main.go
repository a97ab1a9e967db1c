// Command rider books a single trip and follows it to the end: estimate,
// create, then watch the booking over realtime push with polling as the
// fallback. Ctrl-C before pickup cancels the booking.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ride-agent/internal/api"
	"github.com/example/ride-agent/internal/config"
	"github.com/example/ride-agent/internal/logging"
	"github.com/example/ride-agent/internal/models"
	"github.com/example/ride-agent/internal/realtime"
	"github.com/example/ride-agent/internal/route"
	"github.com/example/ride-agent/internal/session"
	"github.com/example/ride-agent/internal/transport"
	"github.com/example/ride-agent/internal/trip"
)

func main() {
	var (
		fromAddr = flag.String("from", "", "pickup address (geocoded)")
		toAddr   = flag.String("to", "", "dropoff address (geocoded)")
		fromLat  = flag.Float64("from-lat", 0, "pickup latitude")
		fromLng  = flag.Float64("from-lng", 0, "pickup longitude")
		toLat    = flag.Float64("to-lat", 0, "dropoff latitude")
		toLng    = flag.Float64("to-lng", 0, "dropoff longitude")
		vehicle  = flag.String("vehicle", "", "vehicle type (defaults to VEHICLE_TYPE)")
		register = flag.String("register", "", "register a new rider account with this full name first")
	)
	flag.Parse()

	cfg, err := config.LoadAgentConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logger := logging.NewLogger(cfg.LogLevel)
	if *vehicle == "" {
		*vehicle = cfg.VehicleType
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := session.NewFileStore(cfg.CredentialsFile)
	client := transport.NewClient(cfg.APIBaseURL, store, logger,
		transport.WithTimeout(cfg.HTTPTimeout),
		transport.OnAuthExpired(func() {
			fmt.Fprintln(os.Stderr, "session expired, log in again")
			stop()
		}))

	creds, err := login(ctx, cfg, client, store, *register)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	maps := api.NewMaps(client)
	pickup, err := resolvePlace(ctx, maps, *fromAddr, *fromLat, *fromLng)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pickup:", err)
		os.Exit(1)
	}
	dropoff, err := resolvePlace(ctx, maps, *toAddr, *toLat, *toLng)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dropoff:", err)
		os.Exit(1)
	}

	r, err := maps.Directions(ctx, route.Request{
		Origin: pickup.Coord(), Destination: dropoff.Coord(), Profile: route.ProfileDriving,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "directions failed:", err)
		os.Exit(1)
	}
	est, err := api.NewPricing(client).Estimate(ctx, api.EstimateRequest{
		VehicleType:    *vehicle,
		DistanceKm:     r.DistanceKm,
		DurationMinute: r.DurationMinutes,
		Region:         cfg.Region,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "estimate failed:", err)
		os.Exit(1)
	}
	fmt.Printf("estimate: %.0f (%.1f km, %.0f min)\n",
		est.EstimatedFare, r.DistanceKm, r.DurationMinutes)

	bookings := api.NewBookings(client)
	b, err := bookings.Create(ctx, api.CreateBookingRequest{
		Pickup: pickup, Dropoff: dropoff, VehicleType: *vehicle, Region: cfg.Region,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "booking failed:", err)
		os.Exit(1)
	}
	fmt.Printf("booking %s created, waiting for a driver...\n", b.ID)

	if err := watch(ctx, cfg, bookings, creds.UserID, b.ID, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func login(ctx context.Context, cfg config.AgentConfig, client *transport.Client, store session.Store, registerName string) (session.Credentials, error) {
	creds, err := store.Load()
	if err != nil {
		return session.Credentials{}, fmt.Errorf("could not load session: %w", err)
	}
	if !creds.Empty() && registerName == "" {
		return creds, nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		return session.Credentials{}, errors.New("set RIDE_EMAIL and RIDE_PASSWORD")
	}

	auth := api.NewAuth(client)
	var resp *api.AuthResponse
	if registerName != "" {
		resp, err = auth.Register(ctx, api.RegisterRequest{
			FullName: registerName, Email: cfg.Email, Password: cfg.Password, Role: "CUSTOMER",
		})
	} else {
		resp, err = auth.Login(ctx, api.LoginRequest{Email: cfg.Email, Password: cfg.Password})
	}
	if err != nil {
		return session.Credentials{}, fmt.Errorf("auth failed: %w", err)
	}
	creds = session.Credentials{AccessToken: resp.AccessToken, UserID: resp.UserID, Role: resp.Role}
	if err := store.Save(creds); err != nil {
		return session.Credentials{}, fmt.Errorf("could not persist session: %w", err)
	}
	return creds, nil
}

func resolvePlace(ctx context.Context, maps *api.Maps, addr string, lat, lng float64) (models.Place, error) {
	if addr != "" {
		p, err := maps.Geocode(ctx, addr)
		if err != nil {
			return models.Place{}, err
		}
		return *p, nil
	}
	if lat == 0 && lng == 0 {
		return models.Place{}, errors.New("give an address or a lat/lng pair")
	}
	return models.Place{Lat: lat, Lng: lng}, nil
}

// watch follows the booking until it reaches a terminal status. An
// interrupt before the trip starts cancels the booking instead.
func watch(ctx context.Context, cfg config.AgentConfig, bookings *api.Bookings, userID, bookingID string, logger *slog.Logger) error {
	rec, err := trip.Start(ctx, bookings, bookingID, trip.Config{
		SearchInterval: cfg.SearchPollInterval,
		TrackInterval:  cfg.TrackPollInterval,
	}, logger)
	if err != nil {
		return err
	}
	defer rec.Close()

	ch, err := realtime.Dial(ctx, cfg.WSURL, userID, logger,
		realtime.WithBackoff(cfg.ReconnectBackoff))
	if err != nil {
		return err
	}
	defer ch.Close()

	last := rec.State().Status
	fmt.Println("status:", last)
	for {
		select {
		case <-ctx.Done():
			st := rec.State().Status
			if st.Terminal() || st == models.StatusInProgress {
				return nil
			}
			cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := bookings.Cancel(cctx, bookingID, "rider interrupted"); err != nil {
				return fmt.Errorf("cancel failed: %w", err)
			}
			fmt.Println("booking canceled")
			return nil
		case env, ok := <-ch.Envelopes():
			if !ok {
				continue
			}
			if env.Type != models.EnvelopeBookingStatus {
				continue
			}
			ev, err := env.BookingStatus()
			if err != nil {
				logger.Warn("bad status payload", "error", err)
				continue
			}
			rec.ApplyEnvelope(ev)
		case b := <-rec.Updates():
			if b.Status != last {
				fmt.Println("status:", b.Status)
				last = b.Status
			}
			if b.DriverID != "" && b.DriverLocation != nil {
				fmt.Printf("  driver %s at %.5f,%.5f\n",
					b.DriverID, b.DriverLocation.Lat, b.DriverLocation.Lng)
			}
		case <-rec.Done():
			final := rec.State()
			if final.Status != last {
				fmt.Println("status:", final.Status)
			}
			if final.Status == models.StatusCompleted {
				fmt.Printf("trip complete, fare %.0f\n", final.Price)
			}
			return nil
		}
	}
}
