package discovery

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/consul/api"
)

// ServiceRegistration describes how an HTTP service is announced to Consul.
type ServiceRegistration struct {
	Name      string
	Host      string
	Port      int
	HealthURL string
	Tags      []string
}

// ConsulRegistrar registers a single service instance with the local Consul
// agent and removes it again on shutdown.
type ConsulRegistrar struct {
	client    *api.Client
	serviceID string
}

// NewConsulRegistrar creates a registrar talking to the agent at addr.
func NewConsulRegistrar(addr string) (*ConsulRegistrar, error) {
	cfg := api.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}

	return &ConsulRegistrar{client: client}, nil
}

// Register announces reg with an HTTP health check.
func (r *ConsulRegistrar) Register(reg ServiceRegistration) error {
	if reg.Name == "" || reg.Port == 0 {
		return errors.New("service name and port are required")
	}

	id := fmt.Sprintf("%s-%s", reg.Name, uuid.NewString())
	registration := &api.AgentServiceRegistration{
		ID:      id,
		Name:    reg.Name,
		Address: reg.Host,
		Port:    reg.Port,
		Tags:    reg.Tags,
	}
	if reg.HealthURL != "" {
		registration.Check = &api.AgentServiceCheck{
			HTTP:                           reg.HealthURL,
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		}
	}

	if err := r.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}
	r.serviceID = id

	return nil
}

// Deregister removes the registered instance. It is a no-op before Register.
func (r *ConsulRegistrar) Deregister() error {
	if r.serviceID == "" {
		return nil
	}

	if err := r.client.Agent().ServiceDeregister(r.serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}
	r.serviceID = ""

	return nil
}

// ServiceID returns the id of the registered instance.
func (r *ConsulRegistrar) ServiceID() string {
	return r.serviceID
}
