package resource

// Instance is a normalized compute instance.
type Instance struct {
	InstanceID       string   `json:"InstanceId" yaml:"InstanceId"`
	InstanceType     string   `json:"InstanceType" yaml:"InstanceType"`
	State            string   `json:"State" yaml:"State"`
	LaunchTime       string   `json:"LaunchTime" yaml:"LaunchTime"`
	Platform         string   `json:"Platform" yaml:"Platform"`
	VpcID            string   `json:"VpcId" yaml:"VpcId"`
	SubnetID         string   `json:"SubnetId" yaml:"SubnetId"`
	AvailabilityZone string   `json:"AvailabilityZone" yaml:"AvailabilityZone"`
	PrivateIPAddress string   `json:"PrivateIpAddress" yaml:"PrivateIpAddress"`
	PublicIPAddress  string   `json:"PublicIpAddress,omitempty" yaml:"PublicIpAddress,omitempty"` // Only set for instances with a public address
	KeyName          string   `json:"KeyName" yaml:"KeyName"`
	SecurityGroups   []string `json:"SecurityGroups" yaml:"SecurityGroups"`
	Name             string   `json:"Name" yaml:"Name"`

	Attribution `yaml:",inline"`
}

// Type implements Record.
func (i Instance) Type() Type { return TypeCompute }

// ID implements Record.
func (i Instance) ID() string { return i.InstanceID }

// Fields implements Record.
func (i Instance) Fields() map[string]any {
	m := map[string]any{
		"InstanceId":       i.InstanceID,
		"InstanceType":     i.InstanceType,
		"State":            i.State,
		"LaunchTime":       i.LaunchTime,
		"Platform":         i.Platform,
		"VpcId":            i.VpcID,
		"SubnetId":         i.SubnetID,
		"AvailabilityZone": i.AvailabilityZone,
		"PrivateIpAddress": i.PrivateIPAddress,
		"KeyName":          i.KeyName,
		"SecurityGroups":   nonNil(i.SecurityGroups),
		"Name":             i.Name,
	}
	if i.PublicIPAddress != "" {
		m["PublicIpAddress"] = i.PublicIPAddress
	}
	return i.putFields(m)
}

// Bucket is a normalized object-storage bucket.
type Bucket struct {
	BucketName   string  `json:"BucketName" yaml:"BucketName"`
	CreationDate string  `json:"CreationDate" yaml:"CreationDate"`
	Region       string  `json:"Region" yaml:"Region"`
	SizeBytes    int64   `json:"SizeBytes" yaml:"SizeBytes"`
	ObjectCount  int64   `json:"ObjectCount" yaml:"ObjectCount"`
	SizeGB       float64 `json:"SizeGB" yaml:"SizeGB"`

	Attribution `yaml:",inline"`
}

// Type implements Record.
func (b Bucket) Type() Type { return TypeStorage }

// ID implements Record.
func (b Bucket) ID() string { return b.BucketName }

// Fields implements Record.
func (b Bucket) Fields() map[string]any {
	return b.putFields(map[string]any{
		"BucketName":   b.BucketName,
		"CreationDate": b.CreationDate,
		"Region":       b.Region,
		"SizeBytes":    b.SizeBytes,
		"ObjectCount":  b.ObjectCount,
		"SizeGB":       b.SizeGB,
	})
}

// Database is a normalized managed database instance.
type Database struct {
	DBInstanceIdentifier  string `json:"DBInstanceIdentifier" yaml:"DBInstanceIdentifier"`
	DBInstanceClass       string `json:"DBInstanceClass" yaml:"DBInstanceClass"`
	Engine                string `json:"Engine" yaml:"Engine"`
	EngineVersion         string `json:"EngineVersion" yaml:"EngineVersion"`
	DBInstanceStatus      string `json:"DBInstanceStatus" yaml:"DBInstanceStatus"`
	AllocatedStorage      int32  `json:"AllocatedStorage" yaml:"AllocatedStorage"` // GiB
	StorageType           string `json:"StorageType" yaml:"StorageType"`
	MultiAZ               bool   `json:"MultiAZ" yaml:"MultiAZ"`
	VpcID                 string `json:"VpcId" yaml:"VpcId"`
	AvailabilityZone      string `json:"AvailabilityZone" yaml:"AvailabilityZone"`
	BackupRetentionPeriod int32  `json:"BackupRetentionPeriod" yaml:"BackupRetentionPeriod"` // Days
	InstanceCreateTime    string `json:"InstanceCreateTime" yaml:"InstanceCreateTime"`

	Attribution `yaml:",inline"`
}

// Type implements Record.
func (d Database) Type() Type { return TypeDatabase }

// ID implements Record.
func (d Database) ID() string { return d.DBInstanceIdentifier }

// Fields implements Record.
func (d Database) Fields() map[string]any {
	return d.putFields(map[string]any{
		"DBInstanceIdentifier":  d.DBInstanceIdentifier,
		"DBInstanceClass":       d.DBInstanceClass,
		"Engine":                d.Engine,
		"EngineVersion":         d.EngineVersion,
		"DBInstanceStatus":      d.DBInstanceStatus,
		"AllocatedStorage":      d.AllocatedStorage,
		"StorageType":           d.StorageType,
		"MultiAZ":               d.MultiAZ,
		"VpcId":                 d.VpcID,
		"AvailabilityZone":      d.AvailabilityZone,
		"BackupRetentionPeriod": d.BackupRetentionPeriod,
		"InstanceCreateTime":    d.InstanceCreateTime,
	})
}

// Function is a normalized serverless function.
type Function struct {
	FunctionName string `json:"FunctionName" yaml:"FunctionName"`
	Runtime      string `json:"Runtime" yaml:"Runtime"`
	Handler      string `json:"Handler" yaml:"Handler"`
	CodeSize     int64  `json:"CodeSize" yaml:"CodeSize"`
	Description  string `json:"Description" yaml:"Description"`
	Timeout      int32  `json:"Timeout" yaml:"Timeout"`       // Seconds
	MemorySize   int32  `json:"MemorySize" yaml:"MemorySize"` // MB
	LastModified string `json:"LastModified" yaml:"LastModified"`
	Version      string `json:"Version" yaml:"Version"`
	VpcID        string `json:"VpcId" yaml:"VpcId"`

	Attribution `yaml:",inline"`
}

// Type implements Record.
func (f Function) Type() Type { return TypeFunction }

// ID implements Record.
func (f Function) ID() string { return f.FunctionName }

// Fields implements Record.
func (f Function) Fields() map[string]any {
	return f.putFields(map[string]any{
		"FunctionName": f.FunctionName,
		"Runtime":      f.Runtime,
		"Handler":      f.Handler,
		"CodeSize":     f.CodeSize,
		"Description":  f.Description,
		"Timeout":      f.Timeout,
		"MemorySize":   f.MemorySize,
		"LastModified": f.LastModified,
		"Version":      f.Version,
		"VpcId":        f.VpcID,
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
