package dlna

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/huin/goupnp"
	"github.com/huin/goupnp/dcps/av1"
	"go.uber.org/zap"
)

var (
	// ErrDeviceNotFound is returned when no renderer matches the requested name.
	ErrDeviceNotFound = errors.New("cast device not found")
	// ErrNoVolumeControl is returned by renderers without RenderingControl.
	ErrNoVolumeControl = errors.New("renderer has no volume control")
)

// Renderer is a media renderer found on the network.
type Renderer struct {
	FriendlyName string
	ModelName    string
	Location     string

	root     *goupnp.RootDevice
	location *url.URL
}

// Discover searches the network for AVTransport renderers until timeout.
// Renderers exposing both service versions are reported once.
func Discover(ctx context.Context, timeout time.Duration, logger *zap.Logger) ([]Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("dlna")

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	seen := make(map[string]bool)
	var renderers []Renderer
	add := func(root *goupnp.RootDevice, loc *url.URL) {
		if root == nil || loc == nil || seen[loc.String()] {
			return
		}
		seen[loc.String()] = true
		renderers = append(renderers, Renderer{
			FriendlyName: root.Device.FriendlyName,
			ModelName:    root.Device.ModelName,
			Location:     loc.String(),
			root:         root,
			location:     loc,
		})
	}

	clients2, errs2, err2 := av1.NewAVTransport2ClientsCtx(ctx)
	for _, c := range clients2 {
		add(c.RootDevice, c.Location)
	}
	clients1, errs1, err1 := av1.NewAVTransport1ClientsCtx(ctx)
	for _, c := range clients1 {
		add(c.RootDevice, c.Location)
	}
	for _, e := range append(errs2, errs1...) {
		if e != nil {
			logger.Debug("device error", zap.Error(e))
		}
	}
	if err1 != nil && err2 != nil {
		return nil, fmt.Errorf("discover renderers: %w", err1)
	}

	logger.Debug("discovery complete", zap.Int("renderers", len(renderers)))
	return renderers, nil
}

// Find returns the renderer named name, ignoring case. An empty name
// selects the first renderer.
func Find(renderers []Renderer, name string) (Renderer, error) {
	for _, r := range renderers {
		if name == "" || strings.EqualFold(r.FriendlyName, name) {
			return r, nil
		}
	}
	if name == "" {
		return Renderer{}, ErrDeviceNotFound
	}
	return Renderer{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
}

// newTransport builds the service clients of r, preferring version 2 of
// each service.
func (r Renderer) newTransport() (*upnpTransport, error) {
	if r.root == nil {
		return nil, fmt.Errorf("renderer %s was not discovered", r.FriendlyName)
	}
	t := &upnpTransport{}

	if c2, err := av1.NewAVTransport2ClientsFromRootDevice(r.root, r.location); err == nil && len(c2) > 0 {
		t.av = &av1.AVTransport1{ServiceClient: c2[0].ServiceClient}
	} else {
		c1, err := av1.NewAVTransport1ClientsFromRootDevice(r.root, r.location)
		if err != nil {
			return nil, fmt.Errorf("avtransport client: %w", err)
		}
		if len(c1) == 0 {
			return nil, fmt.Errorf("no AVTransport service on %s", r.FriendlyName)
		}
		t.av = c1[0]
	}

	if rc2, err := av1.NewRenderingControl2ClientsFromRootDevice(r.root, r.location); err == nil && len(rc2) > 0 {
		t.rc = &av1.RenderingControl1{ServiceClient: rc2[0].ServiceClient}
	} else if rc1, err := av1.NewRenderingControl1ClientsFromRootDevice(r.root, r.location); err == nil && len(rc1) > 0 {
		t.rc = rc1[0]
	}
	return t, nil
}
