package msgs

import (
	"github.com/golang/protobuf/proto"
)

// TaskState is the state of a scheduled task.
type TaskState struct {
	Name  string `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	State string `protobuf:"bytes,2,opt,name=state,proto3" json:"state,omitempty"`
	Runs  uint64 `protobuf:"varint,3,opt,name=runs,proto3" json:"runs,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *TaskState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TaskState) Reset() { *m = TaskState{} }

// String implements proto.Message.
func (m *TaskState) String() string { return proto.CompactTextString(m) }

// Status is the periodic robot status event.
type Status struct {
	Tasks       []*TaskState `protobuf:"bytes,1,rep,name=tasks,proto3" json:"tasks,omitempty"`
	Battery     float64      `protobuf:"fixed64,2,opt,name=battery,proto3" json:"battery,omitempty"`
	MotorEnable bool         `protobuf:"varint,3,opt,name=motor_enable,proto3" json:"motor_enable,omitempty"`
	Abort       bool         `protobuf:"varint,4,opt,name=abort,proto3" json:"abort,omitempty"`
	ControlMode uint32       `protobuf:"varint,5,opt,name=control_mode,proto3" json:"control_mode,omitempty"`
	DrivingMode uint32       `protobuf:"varint,6,opt,name=driving_mode,proto3" json:"driving_mode,omitempty"`
	Pose        *PoseSample  `protobuf:"bytes,7,opt,name=pose,proto3" json:"pose,omitempty"`
	Passes      uint64       `protobuf:"varint,8,opt,name=passes,proto3" json:"passes,omitempty"`
}

// NewMessage implements Message.
func (m *Status) NewMessage() Message { return &Status{} }

// TypeID implements SerializableMessage.
func (m *Status) TypeID() uint32 { return StatusTypeID }

// Serializable implements SerializableMessage.
func (m *Status) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Status) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Status) Reset() { *m = Status{} }

// String implements proto.Message.
func (m *Status) String() string { return proto.CompactTextString(m) }

// MotorSample is the latest motor telemetry.
type MotorSample struct {
	Time        uint32  `protobuf:"varint,1,opt,name=time,proto3" json:"time,omitempty"`
	LeftPos     int32   `protobuf:"varint,2,opt,name=left_pos,proto3" json:"left_pos,omitempty"`
	RightPos    int32   `protobuf:"varint,3,opt,name=right_pos,proto3" json:"right_pos,omitempty"`
	LeftVel     int32   `protobuf:"varint,4,opt,name=left_vel,proto3" json:"left_vel,omitempty"`
	RightVel    int32   `protobuf:"varint,5,opt,name=right_vel,proto3" json:"right_vel,omitempty"`
	LeftEffort  float64 `protobuf:"fixed64,6,opt,name=left_effort,proto3" json:"left_effort,omitempty"`
	RightEffort float64 `protobuf:"fixed64,7,opt,name=right_effort,proto3" json:"right_effort,omitempty"`
}

// NewMessage implements Message.
func (m *MotorSample) NewMessage() Message { return &MotorSample{} }

// TypeID implements SerializableMessage.
func (m *MotorSample) TypeID() uint32 { return MotorSampleTypeID }

// Serializable implements SerializableMessage.
func (m *MotorSample) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *MotorSample) ProtoMessage() {}

// Reset implements proto.Message.
func (m *MotorSample) Reset() { *m = MotorSample{} }

// String implements proto.Message.
func (m *MotorSample) String() string { return proto.CompactTextString(m) }

// PoseSample is the odometry and observer estimate.
type PoseSample struct {
	X        float64 `protobuf:"fixed64,1,opt,name=x,proto3" json:"x,omitempty"`
	Y        float64 `protobuf:"fixed64,2,opt,name=y,proto3" json:"y,omitempty"`
	Theta    float64 `protobuf:"fixed64,3,opt,name=theta,proto3" json:"theta,omitempty"`
	Distance float64 `protobuf:"fixed64,4,opt,name=distance,proto3" json:"distance,omitempty"`
	Psi      float64 `protobuf:"fixed64,5,opt,name=psi,proto3" json:"psi,omitempty"`
	ObsS     float64 `protobuf:"fixed64,6,opt,name=obs_s,proto3" json:"obs_s,omitempty"`
	ObsYaw   float64 `protobuf:"fixed64,7,opt,name=obs_yaw,proto3" json:"obs_yaw,omitempty"`
}

// NewMessage implements Message.
func (m *PoseSample) NewMessage() Message { return &PoseSample{} }

// TypeID implements SerializableMessage.
func (m *PoseSample) TypeID() uint32 { return PoseSampleTypeID }

// Serializable implements SerializableMessage.
func (m *PoseSample) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *PoseSample) ProtoMessage() {}

// Reset implements proto.Message.
func (m *PoseSample) Reset() { *m = PoseSample{} }

// String implements proto.Message.
func (m *PoseSample) String() string { return proto.CompactTextString(m) }

// TypeID Groups
const (
	GroupRomi uint32 = 0x00100000
)

// TypeIDs
const (
	StatusTypeID      uint32 = GroupRomi | TypeIDKindEvent | 0x0000
	MotorSampleTypeID uint32 = GroupRomi | TypeIDKindEvent | 0x0001
	PoseSampleTypeID  uint32 = GroupRomi | TypeIDKindEvent | 0x0002
)
