//TODO: add cameras that corresspond with each scene.

package rt

import (
	"math/rand"
)

type SceneConfig struct {
	GroundColor      Color
	SphereGridBounds struct{ MinA, MaxA, MinB, MaxB int }
	MovingSphereProb float64
	LambertProb      float64
	DielectricProb   float64
	MetalProb        float64
	LargeSpheresY    float64
}

func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		GroundColor: Color{X: 0.5, Y: 0.5, Z: 0.5},
		SphereGridBounds: struct {
			MinA int
			MaxA int
			MinB int
			MaxB int
		}{-10, 10, -10, 10},
		MovingSphereProb: 0,
		LambertProb:      0.3,
		DielectricProb:   0.3,
		MetalProb:        0.3,
		LargeSpheresY:    1.0,
	}
}

func defaultLookCamera(imageWidth int, vfov float64, lookFrom, lookAt Point3) *Camera {
	camera := NewCamera()
	camera.AspectRatio = 16.0 / 9.0
	camera.ImageWidth = imageWidth
	camera.SamplesPerPixel = 50
	camera.MaxDepth = 50
	camera.Vfov = vfov
	camera.LookFrom = lookFrom
	camera.LookAt = lookAt
	camera.Vup = Vec3{X: 0, Y: 1, Z: 0}
	camera.DefocusAngle = 0
	camera.Algorithm = "pt"
	camera.Initialize()
	return camera
}

func RandomScene() (*HittableList, *Camera) {
	world := RandomSceneWithConfig(DefaultSceneConfig())
	camera := defaultLookCamera(1200, 20, Point3{X: 13, Y: 2, Z: 3}, Point3{X: 0, Y: 0, Z: 0})
	camera.DefocusAngle = 0.6
	camera.FocusDist = 10.0
	camera.Initialize()
	return world, camera
}

func RandomSceneWithConfig(config SceneConfig) *HittableList {
	world := NewHittableList()
	groundChecker := NewCheckerTextureFromColors(
		0.32,
		config.GroundColor,
		Color{X: 0.9, Y: 0.9, Z: 0.9},
	)
	groundMaterial := NewLambertianTexture(groundChecker)
	world.Add(NewPlane(Point3{X: 0, Y: 0, Z: -1}, Vec3{X: 0, Y: 1, Z: 0}, groundMaterial))

	for a := config.SphereGridBounds.MinA; a < config.SphereGridBounds.MaxA; a++ {
		for b := config.SphereGridBounds.MinB; b < config.SphereGridBounds.MaxB; b++ {
			chooseMat := rand.Float64()
			center := Point3{
				X: float64(a) + 0.9*rand.Float64(),
				Y: 0.2,
				Z: float64(b) + 0.9*rand.Float64(),
			}

			if center.Sub(Point3{X: 4, Y: 0.2, Z: 0}).Len() > 0.9 {
				addRandomSphere(world, center, chooseMat, config)
			}
		}
	}
	addLargeSpheres(world, config.LargeSpheresY)

	return world
}
func addRandomSphere(world *HittableList, center Point3, chooseMat float64, config SceneConfig) {
	var sphereMaterial Material

	lambertThreshold := config.LambertProb
	metalThreshold := config.MetalProb + lambertThreshold
	dielectricThreshold := config.DielectricProb + metalThreshold

	if chooseMat < lambertThreshold {
		albedo := Color{
			X: rand.Float64() * rand.Float64(),
			Y: rand.Float64() * rand.Float64(),
			Z: rand.Float64() * rand.Float64(),
		}
		sphereMaterial = NewLambertian(albedo)
		world.Add(NewSphere(center, 0.2, sphereMaterial))
	} else if chooseMat < metalThreshold {

		albedo := Color{
			X: 0.5 + rand.Float64()*0.5,
			Y: 0.5 + rand.Float64()*0.5,
			Z: 0.5 + rand.Float64()*0.5,
		}
		fuzz := rand.Float64() * 0.5
		sphereMaterial = NewMetal(albedo, fuzz)
		world.Add(NewSphere(center, 0.2, sphereMaterial))
	} else if chooseMat < dielectricThreshold {

		sphereMaterial = NewDielectric(1.5)
		world.Add(NewSphere(center, 0.2, sphereMaterial))
	}
}

func addLargeSpheres(world *HittableList, y float64) {
	// Glass sphere (center)
	material1 := NewDielectric(1.5)
	world.Add(NewSphere(Point3{X: 0, Y: y, Z: 0}, 1.0, material1))

	// Diffuse sphere (left)
	material2 := NewLambertian(Color{X: 0.4, Y: 0.2, Z: 0.1})
	world.Add(NewSphere(Point3{X: -4, Y: y, Z: 0}, 1.0, material2))

	// Metal sphere (right)
	material3 := NewMetal(Color{X: 0.7, Y: 0.6, Z: 0.5}, 0.0)
	world.Add(NewSphere(Point3{X: 4, Y: y, Z: 0}, 1.0, material3))
}

func CheckeredSpheresScene() (*HittableList, *Camera) {
	world := NewHittableList()

	checker := NewCheckerTextureFromColors(
		0.32,
		Color{X: 0.2, Y: 0.3, Z: 0.1},
		Color{X: 0.9, Y: 0.9, Z: 0.9},
	)

	checkerMaterial := NewLambertianTexture(checker)

	// Bottom sphere (at y=-10)
	world.Add(NewSphere(Point3{X: 0, Y: -10, Z: 0}, 10, checkerMaterial))

	// Top sphere (at y=10)
	world.Add(NewSphere(Point3{X: 0, Y: 10, Z: 0}, 10, checkerMaterial))

	camera := defaultLookCamera(800, 20, Point3{X: 13, Y: 2, Z: 3}, Point3{X: 0, Y: 0, Z: 0})
	return world, camera
}

func SimpleScene() (*HittableList, *Camera) {
	world := NewHittableList()

	materialGround := NewLambertian(Color{X: 0.8, Y: 0.8, Z: 0.0})
	materialCenter := NewLambertian(Color{X: 0.1, Y: 0.2, Z: 0.5})
	materialLeft := NewDielectric(1.5)
	materialBubble := NewDielectric(1.0 / 1.5)
	materialRight := NewMetal(Color{X: 0.8, Y: 0.6, Z: 0.2}, 0.0)

	world.Add(NewPlane(Point3{X: 0, Y: -0.5, Z: -1}, Vec3{X: 0, Y: 1, Z: 0}, materialGround))
	world.Add(NewSphere(Point3{X: 0, Y: 0, Z: -1}, 0.5, materialCenter))
	world.Add(NewSphere(Point3{X: -1, Y: 0, Z: -1}, 0.5, materialLeft))
	world.Add(NewSphere(Point3{X: -1, Y: 0, Z: -1}, 0.4, materialBubble))
	world.Add(NewSphere(Point3{X: 1, Y: 0, Z: -1}, 0.5, materialRight))

	camera := defaultLookCamera(800, 90, Point3{X: 0, Y: 0, Z: 1}, Point3{X: 0, Y: 0, Z: -1})
	return world, camera
}
func EarthScene() (*HittableList, *Camera) {
	world := NewHittableList()

	earthTexture := NewImageTexture("earthmap.jpg")
	earthSurface := NewLambertianTexture(earthTexture)
	globe := NewSphere(Point3{X: 0, Y: 0, Z: 0}, 2, earthSurface)

	world.Add(globe)
	return world, EarthCamera()
}
func EarthCamera() *Camera {
	camera := NewCamera()
	camera.AspectRatio = 16.0 / 9.0
	camera.ImageWidth = 800
	camera.SamplesPerPixel = 100
	camera.MaxDepth = 50
	camera.Vfov = 20
	camera.LookFrom = Point3{X: 0, Y: 0, Z: 12}
	camera.LookAt = Point3{X: 0, Y: 0, Z: 0}
	camera.Vup = Vec3{X: 0, Y: 1, Z: 0}
	camera.DefocusAngle = 0
	camera.Initialize()

	return camera
}
func PerlinSpheresScene() (*HittableList, *Camera) {
	world := NewHittableList()

	pertext := NewNoiseTexture(4.0)

	world.Add(NewSphere(Point3{X: 0, Y: 2, Z: 0}, 2, NewLambertianTexture(pertext)))

	world.Add(NewPlane(Point3{X: 0, Y: 0, Z: -1}, Vec3{X: 0, Y: 1, Z: 0}, NewLambertianTexture(pertext)))

	return world, PerlinSpheresCamera()
}

// PerlinSpheresCamera returns the camera configuration for the Perlin spheres scene
func PerlinSpheresCamera() *Camera {
	camera := NewCamera()
	camera.AspectRatio = 16.0 / 9.0
	camera.ImageWidth = 600
	camera.SamplesPerPixel = 100
	camera.MaxDepth = 50
	camera.Vfov = 20
	camera.LookFrom = Point3{X: 13, Y: 2, Z: -10}
	camera.LookAt = Point3{X: 0, Y: 1.5, Z: 0}
	camera.Vup = Vec3{X: 0, Y: 1, Z: 0}
	camera.DefocusAngle = 0
	camera.Initialize()

	return camera
}

// QuadsScene is the book-style four-quad backdrop, useful as a cheap
// sanity check for Quad hit testing and UV mapping independent of
// lighting.
func QuadsScene() (*HittableList, *Camera) {
	world := NewHittableList()

	leftRed := NewLambertian(Color{X: 1.0, Y: 0.2, Z: 0.2})
	backGreen := NewLambertian(Color{X: 0.2, Y: 1.0, Z: 0.2})
	rightBlue := NewLambertian(Color{X: 0.2, Y: 0.2, Z: 1.0})
	upperOrange := NewLambertian(Color{X: 1.0, Y: 0.5, Z: 0.0})
	lowerTeal := NewLambertian(Color{X: 0.2, Y: 0.8, Z: 0.8})

	world.Add(NewQuad(Point3{X: -3, Y: -2, Z: 5}, Vec3{X: 0, Y: 0, Z: -4}, Vec3{X: 0, Y: 4, Z: 0}, leftRed))
	world.Add(NewQuad(Point3{X: -2, Y: -2, Z: 0}, Vec3{X: 4, Y: 0, Z: 0}, Vec3{X: 0, Y: 4, Z: 0}, backGreen))
	world.Add(NewQuad(Point3{X: 3, Y: -2, Z: 1}, Vec3{X: 0, Y: 0, Z: 4}, Vec3{X: 0, Y: 4, Z: 0}, rightBlue))
	world.Add(NewQuad(Point3{X: -2, Y: 3, Z: 1}, Vec3{X: 4, Y: 0, Z: 0}, Vec3{X: 0, Y: 0, Z: 4}, upperOrange))
	world.Add(NewQuad(Point3{X: -2, Y: -3, Z: 5}, Vec3{X: 4, Y: 0, Z: 0}, Vec3{X: 0, Y: 0, Z: -4}, lowerTeal))

	camera := defaultLookCamera(800, 80, Point3{X: 0, Y: 0, Z: 9}, Point3{X: 0, Y: 0, Z: 0})
	camera.Background = Color{X: 0.7, Y: 0.8, Z: 1.0}
	camera.Initialize()
	return world, camera
}

// cornellWalls builds the five enclosing walls of a unit-scale Cornell
// box (555x555x555) with the conventional red/green/white material
// split, leaving the ceiling free for the caller to add a light quad.
func cornellWalls(world *HittableList) {
	red := NewLambertian(Color{X: 0.65, Y: 0.05, Z: 0.05})
	white := NewLambertian(Color{X: 0.73, Y: 0.73, Z: 0.73})
	green := NewLambertian(Color{X: 0.12, Y: 0.45, Z: 0.15})

	world.Add(NewQuad(Point3{X: 555, Y: 0, Z: 0}, Vec3{X: 0, Y: 555, Z: 0}, Vec3{X: 0, Y: 0, Z: 555}, green))
	world.Add(NewQuad(Point3{X: 0, Y: 0, Z: 0}, Vec3{X: 0, Y: 555, Z: 0}, Vec3{X: 0, Y: 0, Z: 555}, red))
	world.Add(NewQuad(Point3{X: 0, Y: 0, Z: 0}, Vec3{X: 555, Y: 0, Z: 0}, Vec3{X: 0, Y: 0, Z: 555}, white))
	world.Add(NewQuad(Point3{X: 555, Y: 555, Z: 555}, Vec3{X: -555, Y: 0, Z: 0}, Vec3{X: 0, Y: 0, Z: -555}, white))
	world.Add(NewQuad(Point3{X: 0, Y: 0, Z: 555}, Vec3{X: 555, Y: 0, Z: 0}, Vec3{X: 0, Y: 555, Z: 0}, white))
}

func cornellCamera() *Camera {
	camera := defaultLookCamera(600, 40, Point3{X: 278, Y: 278, Z: -800}, Point3{X: 278, Y: 278, Z: 0})
	camera.Background = Color{X: 0, Y: 0, Z: 0}
	return camera
}

// CornellBoxScene is the canonical Cornell box with a single ceiling
// area light: a strategy that only samples the BSDF finds the light
// rarely, a strategy that only samples the light misses the metal
// sphere's specular highlight, and the MIS estimator has to beat
// both alone.
func CornellBoxScene() (*HittableList, *Camera) {
	world := NewHittableList()
	cornellWalls(world)

	light := NewDiffuseLightColor(Color{X: 15, Y: 15, Z: 15})
	lightQuad := NewQuad(Point3{X: 213, Y: 554, Z: 227}, Vec3{X: 130, Y: 0, Z: 0}, Vec3{X: 0, Y: 0, Z: 105}, light)
	world.Add(lightQuad)

	box1 := NewLambertian(Color{X: 0.73, Y: 0.73, Z: 0.73})
	world.Add(NewSphere(Point3{X: 212, Y: 165, Z: 147}, 82.5, box1))

	box2 := NewMetal(Color{X: 0.8, Y: 0.85, Z: 0.88}, 0.0)
	world.Add(NewSphere(Point3{X: 347, Y: 365, Z: 377}, 82.5, box2))

	camera := cornellCamera()
	camera.Lights = []Hittable{lightQuad}
	camera.Algorithm = "dmis"
	camera.Initialize()
	return world, camera
}

// CornellSmokeScene swaps the Cornell spheres for two participating-
// media boxes (dense dark smoke, thin white fog), the usual stress
// test for light sampling through scattering volumes.
func CornellSmokeScene() (*HittableList, *Camera) {
	world := NewHittableList()
	cornellWalls(world)

	light := NewDiffuseLightColor(Color{X: 7, Y: 7, Z: 7})
	lightQuad := NewQuad(Point3{X: 113, Y: 554, Z: 127}, Vec3{X: 330, Y: 0, Z: 0}, Vec3{X: 0, Y: 0, Z: 305}, light)
	world.Add(lightQuad)

	white := NewLambertian(Color{X: 0.73, Y: 0.73, Z: 0.73})
	box1 := Box(Point3{X: 0, Y: 0, Z: 0}, Point3{X: 165, Y: 330, Z: 165}, white)
	box1 = NewTranslate(Ry(box1, 15), Vec3{X: 265, Y: 0, Z: 295})
	world.Add(NewVolumeFromColor(box1, 0.01, Color{X: 0, Y: 0, Z: 0}))

	box2 := Box(Point3{X: 0, Y: 0, Z: 0}, Point3{X: 165, Y: 165, Z: 165}, white)
	box2 = NewTranslate(Ry(box2, -18), Vec3{X: 130, Y: 0, Z: 65})
	world.Add(NewVolumeFromColor(box2, 0.01, Color{X: 1, Y: 1, Z: 1}))

	camera := cornellCamera()
	camera.Lights = []Hittable{lightQuad}
	camera.Algorithm = "dmis"
	camera.Initialize()
	return world, camera
}

// GlassScene is a glass sphere over a matte floor with a mirrored
// pyramid behind it, lit by a constant environment: refraction,
// reflection and caustic-ish paths all in one frame.
func GlassScene() (*HittableList, *Camera) {
	world := NewHittableList()
	world.Add(NewPlane(Point3{X: 0, Y: -1, Z: 0}, Vec3{X: 0, Y: 1, Z: 0}, NewLambertian(Color{X: 0.5, Y: 0.5, Z: 0.5})))
	world.Add(NewSphere(Point3{X: 0, Y: 0, Z: 0}, 1.0, NewDielectric(1.5)))
	world.Add(Pyramid(Point3{X: -2.6, Y: -1, Z: -1.5}, 1.6, 2.2, NewMetal(Color{X: 0.9, Y: 0.9, Z: 0.9}, 0.0)))

	env := NewConstEnvImage(16, 8, Spectrum{X: 1, Y: 1, Z: 1})
	sampler := NewSampler(env, DefaultBuildParameters())

	camera := defaultLookCamera(600, 35, Point3{X: 2.5, Y: 1.2, Z: 4.5}, Point3{X: 0, Y: 0, Z: 0})
	camera.EnvSampler = sampler
	camera.Algorithm = "pt"
	camera.Initialize()
	return world, camera
}

// SceneWhiteFurnace is the white-furnace test: a unit-albedo diffuse
// sphere lit only by a uniform, unit-radiance environment. Every
// algorithm should converge to the same flat-white image, since a
// perfectly diffuse surface in a constant environment reflects
// exactly what it receives.
func SceneWhiteFurnace() (*HittableList, *Camera) {
	world := NewHittableList()
	world.Add(NewSphere(Point3{X: 0, Y: 0, Z: 0}, 1.0, NewLambertian(Color{X: 1, Y: 1, Z: 1})))

	env := NewConstEnvImage(8, 4, Spectrum{X: 1, Y: 1, Z: 1})
	sampler := NewSampler(env, DefaultBuildParameters())

	camera := defaultLookCamera(400, 40, Point3{X: 0, Y: 0, Z: 4}, Point3{X: 0, Y: 0, Z: 0})
	camera.EnvSampler = sampler
	camera.Algorithm = "dmis"
	camera.Initialize()
	return world, camera
}

// SceneSinglePixelEnv pairs a glossy sphere with the degenerate 1x1
// environment map: the steerable
// sampler's triangulation collapses to its coarsest base case, so this
// exercises the whole sampling pipeline on a single-texel light probe.
func SceneSinglePixelEnv() (*HittableList, *Camera) {
	world := NewHittableList()
	world.Add(NewSphere(Point3{X: 0, Y: 0, Z: 0}, 1.0, NewMetal(Color{X: 0.8, Y: 0.8, Z: 0.9}, 0.05)))

	env := NewSinglePixelEnvImage(Spectrum{X: 8, Y: 7, Z: 6})
	sampler := NewSampler(env, DefaultBuildParameters())

	camera := defaultLookCamera(400, 40, Point3{X: 0, Y: 0, Z: 4}, Point3{X: 0, Y: 0, Z: 0})
	camera.EnvSampler = sampler
	camera.Algorithm = "dmis"
	camera.Initialize()
	return world, camera
}

// SceneConstWhiteEnv is the higher-resolution constant-white fixture,
// used to check that triangulation subdivision over a featureless
// image still terminates at MinSubdivLevel rather than over-refining.
func SceneConstWhiteEnv() (*HittableList, *Camera) {
	world := NewHittableList()
	world.Add(NewSphere(Point3{X: 0, Y: 0, Z: 0}, 1.0, NewLambertian(Color{X: 0.5, Y: 0.5, Z: 0.5})))
	world.Add(NewPlane(Point3{X: 0, Y: -1, Z: 0}, Vec3{X: 0, Y: 1, Z: 0}, NewLambertian(Color{X: 0.4, Y: 0.4, Z: 0.4})))

	env := NewConstEnvImage(1024, 512, Spectrum{X: 1, Y: 1, Z: 1})
	sampler := NewSampler(env, DefaultBuildParameters())

	camera := defaultLookCamera(400, 40, Point3{X: 0, Y: 1, Z: 4}, Point3{X: 0, Y: 0, Z: 0})
	camera.EnvSampler = sampler
	camera.Algorithm = "dmis"
	camera.Initialize()
	return world, camera
}
