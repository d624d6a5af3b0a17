package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&Run{},
	&Obstacle{},
	&Frame{},
	&Performance{},
}

// Geometry columns are declared as bytes so the WKB written by the geom
// Valuer lands in bytea/blob/longblob on every dialect.

////////////////////////
// RUN MODELS
////////////////////////

// WorldInfo is the generation report of a run's world.
type WorldInfo struct {
	Seed           int64   `json:"seed"`
	HalfExtent     float64 `json:"halfExtent"`
	GroundY        float64 `json:"groundY"`
	Spacing        float64 `json:"spacing"`
	SpawnClearance float64 `json:"spawnClearance"`
	Requested      int     `json:"requested"`
	Placed         int     `json:"placed"`
	Attempts       int     `json:"attempts"`
}

// Summary holds the totals written when a run ends.
type Summary struct {
	Ticks         uint64  `json:"ticks"`
	Elapsed       float64 `json:"elapsed"`
	WallTimeMs    int64   `json:"wallTimeMs"`
	Distance      float64 `json:"distance"`
	MaxSpeed      float64 `json:"maxSpeed"`
	ClampedDeltas uint64  `json:"clampedDeltas"`
}

// Run is one recorded simulation session
type Run struct {
	ID        uint            `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time       `json:"createdAt"`
	Name      string          `json:"name" gorm:"size:127"`
	Seed      int64           `json:"seed"`
	StartTime time.Time       `json:"startTime" gorm:"index:idx_run_start_time"`
	EndTime   sql.NullTime    `json:"endTime"`
	Version   string          `json:"version" gorm:"size:64"`
	Config    datatypes.JSON  `json:"config"`
	Longitude float64         `json:"longitude"`
	Latitude  float64         `json:"latitude"`
	World     WorldInfo       `json:"world" gorm:"embedded;embeddedPrefix:world_"`
	Summary   Summary         `json:"summary" gorm:"embedded;embeddedPrefix:summary_"`
	Track     geom.LineString `json:"-" gorm:"type:bytes"`
	Obstacles []Obstacle      `json:"-"`
	Frames    []Frame         `json:"-"`
}

func (*Run) TableName() string {
	return "runs"
}

// Obstacle is a placed tree of a run's world
type Obstacle struct {
	ID           uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID        uint       `json:"runId" gorm:"index:idx_obstacle_run_id"`
	Run          Run        `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	ObstacleID   uint       `json:"obstacleId"`
	X            float64    `json:"x"`
	Z            float64    `json:"z"`
	Position     geom.Point `json:"-" gorm:"type:bytes"`
	MinX         float64    `json:"minX"`
	MinZ         float64    `json:"minZ"`
	MaxX         float64    `json:"maxX"`
	MaxZ         float64    `json:"maxZ"`
	TrunkRadius  float64    `json:"trunkRadius"`
	TrunkHeight  float64    `json:"trunkHeight"`
	CanopyRadius float64    `json:"canopyRadius"`
	CanopyHeight float64    `json:"canopyHeight"`
	LeafOffset   float64    `json:"leafOffset"`
	LeafColor    string     `json:"leafColor" gorm:"size:7"`
}

func (*Obstacle) TableName() string {
	return "obstacles"
}

// Lights are the lighting outputs stored per frame
type Lights struct {
	Ambient      float64 `json:"ambient"`
	Directional  float64 `json:"directional"`
	SkyBlend     float64 `json:"skyBlend"`
	SkyColor     string  `json:"skyColor" gorm:"size:7"`
	RainVisible  bool    `json:"rainVisible"`
	HeadlightsOn bool    `json:"headlightsOn"`
	RearLightsOn bool    `json:"rearLightsOn"`
}

// Frame is one recorded tick
type Frame struct {
	ID            uint           `json:"id" gorm:"primarykey;autoIncrement;"`
	RunID         uint           `json:"runId" gorm:"index:idx_frame_run_tick,priority:1"`
	Run           Run            `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Tick          uint64         `json:"tick" gorm:"index:idx_frame_run_tick,priority:2"`
	Time          time.Time      `json:"time"`
	Elapsed       float64        `json:"elapsed"`
	DT            float64        `json:"dt"`
	Input         string         `json:"input" gorm:"size:6"`
	Velocity      float64        `json:"velocity"`
	Distance      float64        `json:"distance"`
	X             float64        `json:"x"`
	Y             float64        `json:"y"`
	Z             float64        `json:"z"`
	Position      geom.Point     `json:"-" gorm:"type:bytes"`
	Heading       float64        `json:"heading"`
	Steering      float64        `json:"steering"`
	CameraX       float64        `json:"cameraX"`
	CameraY       float64        `json:"cameraY"`
	CameraZ       float64        `json:"cameraZ"`
	CameraFOV     float64        `json:"cameraFov"`
	Lights        Lights         `json:"lights" gorm:"embedded;embeddedPrefix:light_"`
	GameTime      float64        `json:"gameTime"`
	DayFactor     float64        `json:"dayFactor"`
	Raining       bool           `json:"raining"`
	RainIntensity float64        `json:"rainIntensity"`
	Parts         datatypes.JSON `json:"parts"`
}

func (*Frame) TableName() string {
	return "frames"
}

////////////////////////
// SYSTEM MODELS
////////////////////////

// Performance is a periodic status sample of the recorder
type Performance struct {
	Time                time.Time `json:"time" gorm:"index:idx_performance_time"`
	RunID               uint      `json:"runId" gorm:"index:idx_performance_run_id"`
	Run                 Run       `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:RunID;"`
	Ticks               uint64    `json:"ticks"`
	Velocity            float64   `json:"velocity"`
	Distance            float64   `json:"distance"`
	FrameQueue          int       `json:"frameQueue"`
	WriteQueue          int       `json:"writeQueue"`
	DroppedFrames       uint64    `json:"droppedFrames"`
	LastWriteDurationMs float32   `json:"lastWriteDurationMs"`
}

func (*Performance) TableName() string {
	return "performances"
}
