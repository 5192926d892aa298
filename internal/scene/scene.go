// Package scene turns a game view into the draw lists of one frame. Build
// is a pure function; the renderer consumes its output.
package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/purchess/purchess/internal/anim"
	"github.com/purchess/purchess/internal/assets"
	"github.com/purchess/purchess/internal/board"
	"github.com/purchess/purchess/internal/config"
	"github.com/purchess/purchess/internal/game"
	"github.com/purchess/purchess/internal/geom"
	"github.com/purchess/purchess/internal/gfx"
	"github.com/purchess/purchess/internal/mesh"
)

// Object is a mesh instance in world space.
type Object struct {
	Mesh          *mesh.Mesh
	Model         mgl32.Mat4
	MVP           mgl32.Mat4
	Tint          mgl32.Vec4
	Texture       *gfx.Texture
	TextureScale  mgl32.Vec3
	TextureOffset mgl32.Vec3
	CastsShadow   bool
}

// Sprite is a textured quad in normalized device coordinates. Scale is
// measured along the vertical axis so sprites keep their shape; the
// renderer corrects the horizontal axis for the aspect ratio.
type Sprite struct {
	Texture  *gfx.Texture
	Tint     mgl32.Vec4
	Position mgl32.Vec2
	Scale    mgl32.Vec2
	Angle    float32
}

// Anchor is the horizontal alignment of a label around its position.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorLeft
	AnchorRight
)

// Label is text drawn as a sprite once rasterized. Height is in vertical
// device units.
type Label struct {
	Text     string
	Position mgl32.Vec2
	Height   float32
	Tint     mgl32.Vec4
	Anchor   Anchor
}

// Frame is everything drawn in one frame, in pass order.
type Frame struct {
	Sky        Object
	Lit        []Object
	Highlights []Object
	UI         []Sprite
	Labels     []Label

	Lighting       gfx.Lighting
	ViewProjection mgl32.Mat4
	ViewDirection  mgl32.Vec3
	ShadowLight    mgl32.Vec3
	Extrude        float32
	Clear          mgl32.Vec4
}

const (
	highlightLift = 0.012
	tagHeight     = 1.5
)

type builder struct {
	view  *game.View
	res   *assets.Resources
	cfg   *config.Config
	vp    mgl32.Mat4
	shape anim.Shape
	frame Frame
}

// Build produces the frame for a view. It allocates fresh lists every call.
func Build(view *game.View, res *assets.Resources, cam *geom.Camera, cfg *config.Config) Frame {
	b := &builder{
		view:  view,
		res:   res,
		cfg:   cfg,
		vp:    cam.ViewProjection(),
		shape: anim.Shape{Lift: cfg.Animation.Lift, Sink: cfg.Animation.Sink},
	}
	b.frame = Frame{
		Lighting:       Lighting(cfg),
		ViewProjection: b.vp,
		ViewDirection:  cam.ViewDirection(),
		ShadowLight:    cfg.Lighting.ShadowLight,
		Extrude:        cfg.Shadow.Extrude,
		Clear:          cfg.Colors.Clear,
	}

	// The sky follows the eye so its horizon never moves.
	skyModel := mgl32.Translate3D(cam.Position().Elem())
	b.frame.Sky = Object{
		Mesh:    res.Sky,
		Model:   skyModel,
		MVP:     b.vp.Mul4(skyModel),
		Tint:    cfg.Colors.Sky,
		Texture: res.SkyMap,
	}

	b.furniture()
	b.pieces()
	b.highlights()
	b.overlay()
	return b.frame
}

// Lighting converts the settings to shader inputs.
func Lighting(cfg *config.Config) gfx.Lighting {
	l := cfg.Lighting
	return gfx.Lighting{
		Lights: [3]gfx.Light{
			{Direction: l.Key.Direction, Color: l.Key.Color},
			{Direction: l.Fill.Direction, Color: l.Fill.Color},
			{Direction: l.Back.Direction, Color: l.Back.Color},
		},
		Ambient:       l.Ambient,
		SpecularPower: l.SpecularPower,
		SpecularColor: l.SpecularColor,
		ShadowTint:    cfg.Shadow.Tint,
	}
}

func (b *builder) object(m *mesh.Mesh, model mgl32.Mat4, tint mgl32.Vec4, tex *gfx.Texture) Object {
	return Object{
		Mesh:         m,
		Model:        model,
		MVP:          b.vp.Mul4(model),
		Tint:         tint,
		Texture:      tex,
		TextureScale: mgl32.Vec3{1, 1, 1},
	}
}

func (b *builder) furniture() {
	res, colors := b.res, b.cfg.Colors

	table := b.object(res.Table, mgl32.Ident4(), colors.Table, res.Wood)
	table.TextureScale = mgl32.Vec3{0.25, 0.25, 0.25}
	frame := b.object(res.Frame, mgl32.Ident4(), colors.Table.Mul(0.8), res.Wood)
	frame.Tint[3] = 1
	frame.TextureScale = mgl32.Vec3{0.5, 0.5, 0.5}
	b.frame.Lit = append(b.frame.Lit, table, frame)

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			pos := board.Pos{X: x, Y: y}
			tint := colors.LightTile
			if (x+y)%2 == 0 {
				tint = colors.DarkTile
			}
			tile := b.object(res.Tile, translate(geom.GridToWorld(pos)), tint, res.Marble)
			tile.TextureScale = mgl32.Vec3{0.5, 0.5, 0.5}
			tile.TextureOffset = mgl32.Vec3{float32(x) * 0.37, 0, float32(y) * 0.53}
			b.frame.Lit = append(b.frame.Lit, tile)
		}
	}

	for _, slot := range b.view.Shop {
		b.frame.Lit = append(b.frame.Lit, b.object(res.Pedestal, translate(geom.GridToWorld(slot.Tile)), colors.Table, res.Wood))
	}
	b.frame.Lit = append(b.frame.Lit, b.object(res.SellTile, translate(geom.GridToWorld(b.view.SellTile)), colors.DarkTile, res.Marble))
}

func (b *builder) pieceColor(c board.Color) mgl32.Vec4 {
	if c == board.White {
		return b.cfg.Colors.WhitePiece
	}
	return b.cfg.Colors.BlackPiece
}

// pieceModel turns black pieces around so knights face the opponent.
func pieceModel(at mgl32.Vec3, c board.Color) mgl32.Mat4 {
	model := translate(at)
	if c == board.Black {
		model = model.Mul4(mgl32.HomogRotate3DY(math.Pi))
	}
	return model
}

func (b *builder) pieces() {
	for i := range b.view.Pieces {
		p := &b.view.Pieces[i]
		at := anim.PiecePosition(p, b.shape)
		obj := b.object(b.res.PieceMesh(p.Type), pieceModel(at, p.Color), b.pieceColor(p.Color), b.res.Marble)
		obj.CastsShadow = true
		b.frame.Lit = append(b.frame.Lit, obj)
	}

	// Shop stock is shown in the colour of the side that can buy it.
	for _, slot := range b.view.Shop {
		if slot.Item == nil {
			continue
		}
		at := geom.GridToWorld(slot.Tile)
		obj := b.object(b.res.PieceMesh(slot.Item.Type), pieceModel(at, b.view.Turn), b.pieceColor(b.view.Turn), b.res.Marble)
		obj.CastsShadow = true
		b.frame.Lit = append(b.frame.Lit, obj)
	}
}

func (b *builder) highlight(pos board.Pos, tint mgl32.Vec4) {
	at := geom.GridToWorld(pos).Add(mgl32.Vec3{0, highlightLift, 0})
	b.frame.Highlights = append(b.frame.Highlights, b.object(b.res.Highlight, translate(at), tint, b.res.White))
}

func (b *builder) highlights() {
	v, colors := b.view, b.cfg.Colors

	switch v.Control.Kind {
	case game.SelectedPiece:
		if p, ok := v.Piece(v.Control.Piece); ok {
			b.highlight(p.Position, colors.Selection)
		}
		for _, d := range v.Destinations {
			b.highlight(d, colors.Destination)
		}
		if v.Sellable {
			b.highlight(v.SellTile, colors.Sell)
		}
	case game.SelectedPurchase:
		if v.Control.Slot >= 0 && v.Control.Slot < len(v.Shop) {
			b.highlight(v.Shop[v.Control.Slot].Tile, colors.Selection)
		}
		for _, p := range v.Placements {
			b.highlight(p, colors.Placement)
		}
	}

	if v.Hover != nil && b.interactive(*v.Hover) {
		b.highlight(*v.Hover, colors.Cursor)
	}
}

// interactive reports whether a tile can be clicked at all.
func (b *builder) interactive(pos board.Pos) bool {
	if pos.OnBoard() || pos == b.view.SellTile {
		return true
	}
	for _, slot := range b.view.Shop {
		if slot.Tile == pos {
			return true
		}
	}
	return false
}

// project maps a world point to normalized device coordinates.
func (b *builder) project(p mgl32.Vec3) (mgl32.Vec2, bool) {
	clip := b.vp.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return mgl32.Vec2{}, false
	}
	return mgl32.Vec2{clip.X() / clip.W(), clip.Y() / clip.W()}, true
}

func (b *builder) overlay() {
	v, colors, text := b.view, b.cfg.Colors, b.cfg.Text

	// Price tags float above the shop tiles.
	for _, slot := range v.Shop {
		if slot.Item == nil {
			continue
		}
		at, ok := b.project(geom.GridToWorld(slot.Tile).Add(mgl32.Vec3{0, tagHeight, 0}))
		if !ok {
			continue
		}
		tint := colors.Text
		if slot.Item.Discounted {
			tint = colors.Discount
		}
		size := text.PriceScale * 1.6
		b.frame.UI = append(b.frame.UI, Sprite{
			Texture:  b.res.Icon(assets.IconTag),
			Tint:     tint,
			Position: at,
			Scale:    mgl32.Vec2{size, size},
			Angle:    -0.2,
		})
		b.frame.Labels = append(b.frame.Labels, Label{
			Text:     fmt.Sprint(slot.Price),
			Position: at,
			Height:   text.PriceScale,
			Tint:     mgl32.Vec4{0.1, 0.08, 0.05, 1},
		})
	}

	if at, ok := b.project(geom.GridToWorld(v.SellTile).Add(mgl32.Vec3{0, tagHeight * 0.6, 0})); ok {
		size := text.PriceScale * 1.4
		b.frame.UI = append(b.frame.UI, Sprite{
			Texture:  b.res.Icon(assets.IconSell),
			Tint:     colors.Sell.Vec3().Vec4(1),
			Position: at,
			Scale:    mgl32.Vec2{size, size},
		})
	}

	// Wallets: black along the top edge, white along the bottom.
	for _, c := range []board.Color{board.White, board.Black} {
		y := float32(-0.85)
		if c == board.Black {
			y = 0.85
		}
		coin := mgl32.Vec2{-0.94, y}
		b.frame.UI = append(b.frame.UI, Sprite{
			Texture:  b.res.Icon(assets.IconCoin),
			Tint:     mgl32.Vec4{1, 1, 1, 1},
			Position: coin,
			Scale:    mgl32.Vec2{text.CoinScale * 1.5, text.CoinScale * 1.5},
		})
		b.frame.Labels = append(b.frame.Labels, Label{
			Text:     fmt.Sprint(v.Wallets.Of(c)),
			Position: coin.Add(mgl32.Vec2{text.CoinScale * 1.1 / geom.TargetAspect, 0}),
			Height:   text.CoinScale * 1.2,
			Tint:     colors.Text,
			Anchor:   AnchorLeft,
		})
		if c == v.Turn && !v.Outcome.Over() {
			crown := b.pieceColor(c)
			crown[3] = 1
			b.frame.UI = append(b.frame.UI, Sprite{
				Texture:  b.res.Icon(assets.IconCrown),
				Tint:     crown,
				Position: mgl32.Vec2{0.94, y},
				Scale:    mgl32.Vec2{text.CoinScale * 1.5, text.CoinScale * 1.5},
			})
		}
	}

	if status := Status(v); status != "" {
		b.frame.Labels = append(b.frame.Labels, Label{
			Text:     status,
			Position: mgl32.Vec2{0, 0.85},
			Height:   text.StatusScale,
			Tint:     colors.Text,
		})
	}
}

// Status is the headline text for the view.
func Status(v *game.View) string {
	switch v.Outcome.Kind {
	case game.Victory:
		return fmt.Sprintf("Checkmate, %s wins", side(v.Outcome.Winner))
	case game.Stalemate:
		return "Stalemate"
	}
	if v.AITurn {
		return fmt.Sprintf("%s is thinking", side(v.Turn))
	}
	return fmt.Sprintf("%s to move", side(v.Turn))
}

func side(c board.Color) string {
	if c == board.White {
		return "White"
	}
	return "Black"
}

func translate(v mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(v.X(), v.Y(), v.Z())
}
