package gossip

import (
	"fmt"
	"time"

	"github.com/hashicorp/memberlist"
	"go.uber.org/zap"

	"github.com/devrev/pairdb/driver/internal/cluster"
	"github.com/devrev/pairdb/driver/internal/model"
)

// Source feeds node membership changes from the cluster gossip mesh into a
// topology listener. It is a passive observer: it joins the mesh to hear
// join/leave events but contributes no state of its own.
type Source struct {
	config     *Config
	memberlist *memberlist.Memberlist
	listener   cluster.TopologyListener
	logger     *zap.Logger
}

// Config holds gossip source configuration
type Config struct {
	NodeName       string
	BindPort       int
	SeedNodes      []string
	GossipInterval time.Duration
	ProbeTimeout   time.Duration
	ProbeInterval  time.Duration
}

// NewSource creates a gossip source and joins the seed nodes.
func NewSource(cfg *Config, listener cluster.TopologyListener, logger *zap.Logger) (*Source, error) {
	s := &Source{
		config:   cfg,
		listener: listener,
		logger:   logger,
	}

	mlConfig := memberlist.DefaultLocalConfig()
	mlConfig.Name = cfg.NodeName
	mlConfig.BindPort = cfg.BindPort
	mlConfig.GossipInterval = cfg.GossipInterval
	mlConfig.ProbeTimeout = cfg.ProbeTimeout
	mlConfig.ProbeInterval = cfg.ProbeInterval
	mlConfig.Events = &eventDelegate{source: s}

	ml, err := memberlist.Create(mlConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create memberlist: %w", err)
	}
	s.memberlist = ml

	if len(cfg.SeedNodes) > 0 {
		if _, err := ml.Join(cfg.SeedNodes); err != nil {
			logger.Warn("Failed to join some seed nodes", zap.Error(err))
		}
	}

	return s, nil
}

// Shutdown leaves the gossip mesh.
func (s *Source) Shutdown() error {
	return s.memberlist.Shutdown()
}

func hostFromNode(node *memberlist.Node) *model.Host {
	return &model.Host{
		ID:      node.Name,
		Address: node.Addr.String(),
	}
}

// eventDelegate handles memberlist events. Memberlist has no separate
// up/down signal; a node present in the mesh is up, so joins report both
// added and up, and leaves report both down and removed.
type eventDelegate struct {
	source *Source
}

// NotifyJoin is called when a node joins
func (d *eventDelegate) NotifyJoin(node *memberlist.Node) {
	d.source.logger.Info("Node joined",
		zap.String("node_id", node.Name),
		zap.String("addr", node.Addr.String()))
	host := hostFromNode(node)
	d.source.listener.HostAdded(host)
	d.source.listener.HostUp(host)
}

// NotifyLeave is called when a node leaves or fails
func (d *eventDelegate) NotifyLeave(node *memberlist.Node) {
	d.source.logger.Info("Node left",
		zap.String("node_id", node.Name))
	host := hostFromNode(node)
	d.source.listener.HostDown(host)
	d.source.listener.HostRemoved(host)
}

// NotifyUpdate is called when a node's metadata changes; metadata does not
// affect partition routing.
func (d *eventDelegate) NotifyUpdate(node *memberlist.Node) {
	d.source.logger.Debug("Node updated",
		zap.String("node_id", node.Name))
}
