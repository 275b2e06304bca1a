package localize

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"amcl-go/motion"
	"amcl-go/particle"
	"amcl-go/sensor"
)

// Config is the full set of tunables for a Loop, loaded from YAML the way
// the mesh configuration loader reads and validates its own config file.
type Config struct {
	MinParticles int     `yaml:"min_particles"`
	MaxParticles int     `yaml:"max_particles"`
	KldErr       float64 `yaml:"kld_err"`
	KldZ         float64 `yaml:"kld_z"`

	UpdateMinD        float64 `yaml:"update_min_d"`
	UpdateMinA        float64 `yaml:"update_min_a"`
	ResampleInterval  int     `yaml:"resample_interval"`

	OdomModelType string  `yaml:"odom_model_type"`
	OdomAlpha1    float64 `yaml:"odom_alpha1"`
	OdomAlpha2    float64 `yaml:"odom_alpha2"`
	OdomAlpha3    float64 `yaml:"odom_alpha3"`
	OdomAlpha4    float64 `yaml:"odom_alpha4"`
	OdomAlpha5    float64 `yaml:"odom_alpha5"`

	LaserZHit           float64 `yaml:"laser_z_hit"`
	LaserZShort         float64 `yaml:"laser_z_short"`
	LaserZMax           float64 `yaml:"laser_z_max"`
	LaserZRand          float64 `yaml:"laser_z_rand"`
	LaserSigmaHit       float64 `yaml:"sigma_hit"`
	LikelihoodMaxDist   float64 `yaml:"likelihood_max_dist"`
	MaxBeams            int     `yaml:"max_beams"`
	OffMapFactor        float64 `yaml:"off_map_factor"`
	NonFreeSpaceFactor  float64 `yaml:"non_free_space_factor"`
	NonFreeSpaceRadius  float64 `yaml:"non_free_space_radius"`

	RecoveryAlphaSlow float64 `yaml:"recovery_alpha_slow"`
	RecoveryAlphaFast float64 `yaml:"recovery_alpha_fast"`
	GlobalAlphaSlow   float64 `yaml:"global_localization_alpha_slow"`
	GlobalAlphaFast   float64 `yaml:"global_localization_alpha_fast"`

	ResampleModelType string `yaml:"resample_model_type"`

	TransformTolerance    float64 `yaml:"transform_tolerance"`
	TransformPublishRate  float64 `yaml:"transform_publish_rate"`

	UniformPoseStartingWeightThreshold float64 `yaml:"uniform_pose_starting_weight_threshold"`
	UniformPoseDeweightMultiplier      float64 `yaml:"uniform_pose_deweight_multiplier"`

	// AbsoluteMotionTopic names the externally-published absolute-motion
	// source (e.g. a fused/absolute odometry feed) driving the gaussian
	// motion model and the update threshold in place of the instantaneous
	// odometry delta. Empty disables it.
	AbsoluteMotionTopic string `yaml:"absolute_motion_topic"`

	BaseFrame   string `yaml:"base_frame"`
	OdomFrame   string `yaml:"odom_frame"`
	GlobalFrame string `yaml:"global_frame"`
	AltGlobalFrame string `yaml:"alt_global_frame"`
}

// LoadConfig reads and validates a YAML config file, clamping and warning
// on out-of-range values rather than failing startup.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	cfg.applyDefaults()
	cfg.clamp()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MinParticles == 0 {
		c.MinParticles = 100
	}
	if c.MaxParticles == 0 {
		c.MaxParticles = 5000
	}
	if c.KldErr == 0 {
		c.KldErr = 0.01
	}
	if c.KldZ == 0 {
		c.KldZ = 0.99
	}
	if c.ResampleInterval == 0 {
		c.ResampleInterval = 2
	}
	if c.LaserZMax == 0 {
		c.LaserZMax = 30.0
	}
	if c.TransformTolerance == 0 {
		c.TransformTolerance = 0.1
	}
	if c.TransformPublishRate == 0 {
		c.TransformPublishRate = 10.0
	}
	if c.UniformPoseDeweightMultiplier == 0 {
		c.UniformPoseDeweightMultiplier = 1.0
	}
}

func (c *Config) clamp() {
	if c.MinParticles > c.MaxParticles {
		log.Printf("localize: min_particles (%d) > max_particles (%d), clamping", c.MinParticles, c.MaxParticles)
		c.MinParticles = c.MaxParticles
	}
}

// MotionModel builds the configured odometry motion model, falling back to
// the differential-drive model and logging a warning on an unrecognized
// odom_model_type.
func (c *Config) MotionModel() motion.Model {
	switch c.OdomModelType {
	case "omni":
		return motion.Model{Type: motion.Omni, Alpha1: c.OdomAlpha1, Alpha2: c.OdomAlpha2, Alpha3: c.OdomAlpha3, Alpha4: c.OdomAlpha4, Alpha5: c.OdomAlpha5}
	case "diff-corrected":
		return motion.Model{Type: motion.DiffCorrected, Alpha1: c.OdomAlpha1, Alpha2: c.OdomAlpha2, Alpha3: c.OdomAlpha3, Alpha4: c.OdomAlpha4}
	case "omni-corrected":
		return motion.Model{Type: motion.OmniCorrected, Alpha1: c.OdomAlpha1, Alpha2: c.OdomAlpha2, Alpha3: c.OdomAlpha3, Alpha4: c.OdomAlpha4, Alpha5: c.OdomAlpha5}
	case "gaussian":
		return motion.Model{Type: motion.Gaussian, Alpha1: c.OdomAlpha1, Alpha2: c.OdomAlpha2, Alpha3: c.OdomAlpha3, Alpha4: c.OdomAlpha4, Alpha5: c.OdomAlpha5}
	case "diff", "":
		return motion.Model{Type: motion.Diff, Alpha1: c.OdomAlpha1, Alpha2: c.OdomAlpha2, Alpha3: c.OdomAlpha3, Alpha4: c.OdomAlpha4}
	default:
		log.Printf("localize: unknown odom_model_type %q, defaulting to diff", c.OdomModelType)
		return motion.Model{Type: motion.Diff, Alpha1: c.OdomAlpha1, Alpha2: c.OdomAlpha2, Alpha3: c.OdomAlpha3, Alpha4: c.OdomAlpha4}
	}
}

// SensorModel builds the configured likelihood-field sensor model.
func (c *Config) SensorModel() sensor.Model {
	return sensor.Model{
		ZHit:               c.LaserZHit,
		ZRand:              c.LaserZRand,
		SigmaHit:           c.LaserSigmaHit,
		ZMax:               c.LaserZMax,
		MaxBeams:           c.MaxBeams,
		OffMapFactor:       c.OffMapFactor,
		NonFreeSpaceFactor: c.NonFreeSpaceFactor,
		NonFreeSpaceRadius: c.NonFreeSpaceRadius,
	}
}

// ResampleModel resolves the configured ancestor-sampling strategy,
// defaulting to multinomial and warning on an unrecognized value.
func (c *Config) ResampleModel() particle.ResampleModel {
	switch c.ResampleModelType {
	case "systematic":
		return particle.Systematic
	case "multinomial", "":
		return particle.Multinomial
	default:
		log.Printf("localize: unknown resample_model_type %q, defaulting to multinomial", c.ResampleModelType)
		return particle.Multinomial
	}
}
