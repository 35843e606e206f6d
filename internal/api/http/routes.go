package httpapi

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

// LegacyForecastPath is where the static front-end expects the proxy.
const LegacyForecastPath = "/.netlify/functions/weather"

// forecastCacheControl lets intermediaries reuse a forecast for five minutes.
const forecastCacheControl = "public, max-age=300"

var validate = validator.New()

// Options tunes the HTTP layer.
type Options struct {
	// RequestTimeout bounds the outbound work of a single request. fasthttp
	// does not report client disconnects, so this deadline is what abandons
	// in-flight upstream fetches.
	RequestTimeout time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, opts Options) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 20 * time.Second
	}
	deadline := withDeadline(opts.RequestTimeout)

	forecast := func(c *fiber.Ctx) error {
		q, err := parseCoordinateQuery(c)
		if err != nil {
			return err
		}

		env, err := service.Forecast(c.UserContext(), q.toCoordinate())
		if err != nil {
			log.Printf("ERROR: forecast for %s,%s failed (request %s): %v",
				q.Lat, q.Lon, c.GetRespHeader(fiber.HeaderXRequestID), err)
			return err
		}

		c.Set(fiber.HeaderCacheControl, forecastCacheControl)
		return c.JSON(env)
	}

	app.Get(LegacyForecastPath, deadline, forecast)

	v1 := app.Group("/api/v1")
	v1.Get("/weather", deadline, forecast)

	v1.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"cities": service.Cities(),
		})
	})

	v1.Get("/dashboard", deadline, func(c *fiber.Ctx) error {
		var q dashboardQuery
		q.City = strings.TrimSpace(c.Query("city"))
		if err := validate.Struct(q); err != nil {
			return &weather.Error{Kind: weather.ErrInvalidRequest, Message: "Invalid city", Err: err}
		}

		dash, err := service.Dashboard(c.UserContext(), q.City)
		if err != nil {
			log.Printf("ERROR: dashboard for %q failed (request %s): %v",
				q.City, c.GetRespHeader(fiber.HeaderXRequestID), err)
			return err
		}
		return c.JSON(dash)
	})
}

// withDeadline gives the rest of the chain a user context that expires after
// timeout.
func withDeadline(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// coordinateQuery holds the lat/lon query parameters of the forecast proxy.
type coordinateQuery struct {
	Lat string `validate:"required,latitude"`
	Lon string `validate:"required,longitude"`
}

func (q coordinateQuery) toCoordinate() weather.Coordinate {
	return weather.Coordinate{Latitude: q.Lat, Longitude: q.Lon}
}

func parseCoordinateQuery(c *fiber.Ctx) (coordinateQuery, error) {
	q := coordinateQuery{
		Lat: strings.TrimSpace(c.Query("lat")),
		Lon: strings.TrimSpace(c.Query("lon")),
	}

	if err := validate.Struct(q); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "required" {
					return q, &weather.Error{Kind: weather.ErrInvalidRequest, Message: "Missing lat/lon"}
				}
			}
		}
		return q, &weather.Error{Kind: weather.ErrInvalidRequest, Message: "Invalid lat/lon", Err: err}
	}

	return q, nil
}

// dashboardQuery holds query parameters for the dashboard endpoint.
type dashboardQuery struct {
	City string `validate:"omitempty,alphanum,max=16"`
}
