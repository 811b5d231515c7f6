package encode

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/sdfblend/sdfrt/rt/core"
)

// Matches the shader's StructuredBuffer element (tightly packed)
// struct ShapeData {
//    shapeType : uint;          (4)   @0
//    pos : float3;              (12)  @4
//    inverseRotMatrix : float3x3; (36) @16
//    inverseScaleMatrix : float3x3; (36) @52
//    color : float4;            (16)  @88
//    metadata : float3;         (12)  @104
//    parentIndex : uint;        (4)   @116
// }; -> 120 bytes
//
// Matrices are column-major.
const ShapeRecordSize = 120

// struct BlendContainerData {
//    blendFunc : uint;       @0
//    parentBlendFunc : uint; @4
//    numChilds : uint;       @8
//    numShapes : uint;       @12
//    parentIndex : uint;     @16
//    isSmoothBlend : uint;   @20
//    smoothFactor : float;   @24
// }; -> 28 bytes
const ContainerRecordSize = 28

type ShapeRecord struct {
	Kind          core.ShapeKind
	Position      mgl32.Vec3
	InverseRotate mgl32.Mat3
	InverseScale  mgl32.Mat3
	Color         mgl32.Vec4
	Metadata      mgl32.Vec3
	OwnerIndex    uint32
}

type ContainerRecord struct {
	Blend        core.BlendOp
	ParentBlend  core.BlendOp
	ChildCount   uint32
	ShapeCount   uint32
	ParentIndex  uint32
	SmoothBlend  uint32 // 0 or 1
	SmoothFactor float32
}

// Put writes the record into buf, which must hold ShapeRecordSize bytes.
func (r *ShapeRecord) Put(buf []byte) {
	_ = buf[ShapeRecordSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Kind))
	off := putFloats(buf, 4, r.Position[:])
	off = putFloats(buf, off, r.InverseRotate[:])
	off = putFloats(buf, off, r.InverseScale[:])
	off = putFloats(buf, off, r.Color[:])
	off = putFloats(buf, off, r.Metadata[:])
	binary.LittleEndian.PutUint32(buf[off:off+4], r.OwnerIndex)
}

func (r *ShapeRecord) ToBytes() []byte {
	buf := make([]byte, ShapeRecordSize)
	r.Put(buf)
	return buf
}

// Put writes the record into buf, which must hold ContainerRecordSize bytes.
func (r *ContainerRecord) Put(buf []byte) {
	_ = buf[ContainerRecordSize-1]
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r.Blend))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.ParentBlend))
	binary.LittleEndian.PutUint32(buf[8:12], r.ChildCount)
	binary.LittleEndian.PutUint32(buf[12:16], r.ShapeCount)
	binary.LittleEndian.PutUint32(buf[16:20], r.ParentIndex)
	binary.LittleEndian.PutUint32(buf[20:24], r.SmoothBlend)
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(r.SmoothFactor))
}

func (r *ContainerRecord) ToBytes() []byte {
	buf := make([]byte, ContainerRecordSize)
	r.Put(buf)
	return buf
}

func DecodeShapeRecord(buf []byte) ShapeRecord {
	_ = buf[ShapeRecordSize-1]
	var r ShapeRecord
	r.Kind = core.ShapeKind(binary.LittleEndian.Uint32(buf[0:4]))
	off := getFloats(buf, 4, r.Position[:])
	off = getFloats(buf, off, r.InverseRotate[:])
	off = getFloats(buf, off, r.InverseScale[:])
	off = getFloats(buf, off, r.Color[:])
	off = getFloats(buf, off, r.Metadata[:])
	r.OwnerIndex = binary.LittleEndian.Uint32(buf[off : off+4])
	return r
}

func DecodeContainerRecord(buf []byte) ContainerRecord {
	_ = buf[ContainerRecordSize-1]
	return ContainerRecord{
		Blend:        core.BlendOp(binary.LittleEndian.Uint32(buf[0:4])),
		ParentBlend:  core.BlendOp(binary.LittleEndian.Uint32(buf[4:8])),
		ChildCount:   binary.LittleEndian.Uint32(buf[8:12]),
		ShapeCount:   binary.LittleEndian.Uint32(buf[12:16]),
		ParentIndex:  binary.LittleEndian.Uint32(buf[16:20]),
		SmoothBlend:  binary.LittleEndian.Uint32(buf[20:24]),
		SmoothFactor: math.Float32frombits(binary.LittleEndian.Uint32(buf[24:28])),
	}
}

// PackShapes serialises records into dst, reusing its capacity.
func PackShapes(dst []byte, records []ShapeRecord) []byte {
	dst = grow(dst, len(records)*ShapeRecordSize)
	for i := range records {
		records[i].Put(dst[i*ShapeRecordSize:])
	}
	return dst
}

// PackContainers serialises records into dst, reusing its capacity.
func PackContainers(dst []byte, records []ContainerRecord) []byte {
	dst = grow(dst, len(records)*ContainerRecordSize)
	for i := range records {
		records[i].Put(dst[i*ContainerRecordSize:])
	}
	return dst
}

func grow(dst []byte, n int) []byte {
	if cap(dst) < n {
		return make([]byte, n)
	}
	return dst[:n]
}

func putFloats(buf []byte, off int, vals []float32) int {
	for _, v := range vals {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	return off
}

func getFloats(buf []byte, off int, vals []float32) int {
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
	}
	return off
}
