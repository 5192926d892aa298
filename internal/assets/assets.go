// Package assets builds the read-only resources of a session: meshes,
// textures, the label font and sound effects. Everything is generated or
// embedded, so loading never touches the file system.
package assets

import (
	"fmt"
	"math/rand/v2"

	"github.com/purchess/purchess/internal/anim"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/gfx"
	"github.com/purchess/purchess/internal/mesh"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Options are the settings resource generation depends on.
type Options struct {
	FontSize   float64
	SampleRate int
}

// Resources are everything loaded once per session.
type Resources struct {
	pieces map[board.PieceType]*mesh.Mesh

	Tile      *mesh.Mesh
	Frame     *mesh.Mesh
	Table     *mesh.Mesh
	Pedestal  *mesh.Mesh
	SellTile  *mesh.Mesh
	Highlight *mesh.Mesh
	Sky       *mesh.Mesh
	Quad      *mesh.Mesh

	White  *gfx.Texture
	Wood   *gfx.Texture
	Marble *gfx.Texture
	SkyMap *gfx.Texture
	icons  map[string]*gfx.Texture

	Face   font.Face
	Sounds Sounds
}

// Load builds every resource. Failures are setup errors.
func Load(opt Options) (*Resources, error) {
	rng := rand.New(rand.NewPCG(7, 11))

	r := &Resources{
		pieces:    pieceMeshes(),
		Tile:      tileMesh(),
		Frame:     frameMesh(),
		Table:     tableMesh(),
		Pedestal:  pedestalMesh(),
		SellTile:  sellTileMesh(),
		Highlight: highlightMesh(),
		Sky:       skyMesh(),
		Quad:      mesh.Quad("quad"),
		White:     solidTexture("white"),
		Wood:      woodTexture(rng),
		Marble:    marbleTexture(rng),
		SkyMap:    skyTexture(),
		icons:     make(map[string]*gfx.Texture),
	}

	for _, name := range []string{IconCoin, IconCrown, IconSell, IconTag} {
		tex, err := loadIcon(name)
		if err != nil {
			return nil, err
		}
		r.icons[name] = tex
	}

	face, err := loadFace(opt.FontSize)
	if err != nil {
		return nil, err
	}
	r.Face = face

	rate := opt.SampleRate
	if rate <= 0 {
		rate = 44100
	}
	r.Sounds = Sounds{Tap: tapSound(rate), Coin: coinSound(rate), Music: musicLoop(rate)}

	log.Debug().
		Int("meshes", len(r.pieces)+8).
		Int("icons", len(r.icons)).
		Float64("font_size", opt.FontSize).
		Msg("Resources loaded")
	return r, nil
}

func loadFace(size float64) (font.Face, error) {
	if size <= 0 {
		size = 48
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// PieceMesh returns the mesh for a piece type. A missing entry is a
// programming error.
func (r *Resources) PieceMesh(t board.PieceType) *mesh.Mesh {
	m, ok := r.pieces[t]
	if !ok {
		panic(fmt.Sprintf("assets: no mesh for piece type %v", t))
	}
	return m
}

// Icon returns an embedded icon texture by name.
func (r *Resources) Icon(name string) *gfx.Texture {
	tex, ok := r.icons[name]
	if !ok {
		panic(fmt.Sprintf("assets: no icon %q", name))
	}
	return tex
}

// Sound returns the PCM data for an animation cue.
func (r *Resources) Sound(s anim.Sound) []byte {
	if s == anim.SoundCoin {
		return r.Sounds.Coin
	}
	return r.Sounds.Tap
}

// Close releases the font face.
func (r *Resources) Close() error {
	if r.Face != nil {
		return r.Face.Close()
	}
	return nil
}
