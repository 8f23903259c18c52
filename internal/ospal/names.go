package ospal

import "fmt"

// DefaultPrefix is the fallback {prefix} used when the caller's config
// does not override it.
const DefaultPrefix = "iox2_"

// StaticConfigName builds the static config file name:
// {prefix}{hash("config")}_{service_id}.service
func StaticConfigName(prefix, hashConfig, serviceID string) string {
	return fmt.Sprintf("%s%s_%s.service", prefix, hashConfig, serviceID)
}

// DynamicConfigName builds the dynamic config shared-memory name:
// {prefix}{hash("dyn")}_{service_id}.dynamic
func DynamicConfigName(prefix, hashDyn, serviceID string) string {
	return fmt.Sprintf("%s%s_%s.dynamic", prefix, hashDyn, serviceID)
}

// CreationLockName builds the creation-lock file name:
// {prefix}{service_id}.lock
func CreationLockName(prefix, serviceID string) string {
	return fmt.Sprintf("%s%s.lock", prefix, serviceID)
}

// PublisherDataSegmentName builds a publisher's data segment name:
// {prefix}{publisher_id}.data
func PublisherDataSegmentName(prefix, publisherID string) string {
	return fmt.Sprintf("%s%s.data", prefix, publisherID)
}

// ConnectionName builds a connection's shared-memory object name:
// {prefix}{publisher_id}_{subscriber_id}.connection
func ConnectionName(prefix, publisherID, subscriberID string) string {
	return fmt.Sprintf("%s%s_%s.connection", prefix, publisherID, subscriberID)
}

// NodeRecordName builds a node record's file name:
// {prefix}{node_id}.node
func NodeRecordName(prefix, nodeID string) string {
	return fmt.Sprintf("%s%s.node", prefix, nodeID)
}

// PortRosterName builds a service's per-kind port roster shared-memory
// name: {prefix}{service_id}_{kind}.roster
func PortRosterName(prefix, serviceID, kind string) string {
	return fmt.Sprintf("%s%s_%s.roster", prefix, serviceID, kind)
}
